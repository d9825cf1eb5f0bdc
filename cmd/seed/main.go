// Command seed bootstraps bot data: a default system prompt per provider
// and, optionally, an admin account.
package main

import (
	"context"
	"errors"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/esaudezap/backend/internal/bot"
	"github.com/esaudezap/backend/internal/chat"
	"github.com/esaudezap/backend/internal/config"
	"github.com/esaudezap/backend/internal/db"
	"github.com/esaudezap/backend/internal/models"
)

const defaultPromptContent = `Agente de Assistência: ImunoAjudaMG – versão 1.0

Atue em primeira pessoa como {ImunoAjudaMG}.
Sua função é orientar cidadãos de Minas Gerais sobre como buscar
imunobiológicos especiais pelo SUS.

[Regras]
1. Sempre atue como assistente de orientação, com foco no cidadão.
2. Use linguagem simples, mas respeitosa e precisa.
3. Confirme tudo com o usuário a cada passo.
4. Evite termos técnicos sem explicação.
5. Nunca ofereça diagnóstico. Apenas oriente para serviços públicos oficiais.
6. Toda resposta deve indicar o próximo passo prático.

[Limitações]
- Não substituir profissionais de saúde.
- Não receitar imunobiológicos.
- Atuar exclusivamente no contexto do SUS-MG.
- Apenas use texto simples (não use markdown!).`

var (
	configPath = flag.String("config", "", "Path to config file")
	adminEmail = flag.String("admin-email", "", "Upgrade this account to the admin role")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	gdb, err := db.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	if err := db.Migrate(gdb); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	ctx := context.Background()
	repo := chat.NewRepo(gdb)

	for _, botType := range []string{bot.TypeOpenAI, bot.TypeGemini} {
		_, err := repo.GetDefaultPrompt(ctx, botType)
		if err == nil {
			logger.Info("default prompt already present", zap.String("bot_type", botType))
			continue
		}
		if !errors.Is(err, chat.ErrPromptNotFound) {
			logger.Fatal("lookup default prompt", zap.String("bot_type", botType), zap.Error(err))
		}

		prompt := &chat.BotPrompt{
			PromptName:    "ImunoAjudaMG",
			BotType:       botType,
			PromptContent: defaultPromptContent,
			IsDefault:     true,
		}
		if err := repo.CreatePrompt(ctx, prompt); err != nil {
			logger.Fatal("seed default prompt", zap.String("bot_type", botType), zap.Error(err))
		}
		logger.Info("seeded default prompt", zap.String("bot_type", botType), zap.Uint64("id", prompt.ID))
	}

	if *adminEmail != "" {
		res := gdb.WithContext(ctx).Model(&models.User{}).
			Where("email = ?", *adminEmail).
			Update("role", models.RoleAdmin)
		if res.Error != nil {
			logger.Fatal("upgrade admin", zap.Error(res.Error))
		}
		if res.RowsAffected == 0 {
			logger.Warn("no user with that email", zap.String("email", *adminEmail))
		} else {
			logger.Info("upgraded to admin", zap.String("email", *adminEmail))
		}
	}
}

package main

import (
	"os"

	"github.com/DRSN-tech/storefront/internal/app"
	config "github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

//	@title						Storefront API
//	@version					1.0
//	@description				Витрина магазина: каталог, корзина, оформление заказа, оплата и админка.
//	@host						localhost:8080
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	AdminToken
//	@in							header
//	@name						Authorization
//	@description				Bearer-токен оператора. Также принимается cookie admin_session.
func main() {
	log := logger.NewZapLogger("service", "storefront")

	cfg, err := config.Load(log)
	if err != nil {
		log.Errorf(err, "failed to load config")
		os.Exit(1)
	}

	application, err := app.NewApp(cfg, log)
	if err != nil {
		log.Errorf(err, "failed to initialize app")
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		os.Exit(1)
	}
}

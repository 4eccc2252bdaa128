package main

import (
	"cbrates/internal/app"

	"github.com/sirupsen/logrus"
)

// @title CBR Rates API
// @version 1.0
// @description Daily snapshot of the Central Bank of Russia exchange rates.
// @host localhost:8080
// @BasePath /api
func main() {
	if err := app.Run(); err != nil {
		logrus.Fatalf("Application stopped: %v", err)
	}
}

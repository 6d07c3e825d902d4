package main

import (
	"context"
	"log"

	"github.com/Apurer/go-gin-storefront/internal/app/api"
)

func main() {
	if err := api.Run(context.Background()); err != nil {
		log.Fatalf("storefront api: %v", err)
	}
}

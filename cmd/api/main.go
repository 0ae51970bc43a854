package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finance-assistant/internal/app"
	"finance-assistant/internal/app/api"
	"finance-assistant/pkg/config"
	"finance-assistant/pkg/secrets"
)

func main() {
	// .env 可选，不存在时忽略
	_ = godotenv.Load()
	if path, err := secrets.MaterializeGoogleCredentials("."); err != nil {
		log.Fatalf("写入 Google 凭据失败: %v", err)
	} else if path != "" {
		log.Printf("Google 凭据已写入 %s", path)
	}

	cfg, err := config.LoadAPIConfig()
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	bootstrap, err := app.NewBootstrap(context.Background(), cfg)
	if err != nil {
		log.Fatalf("初始化失败: %v", err)
	}

	application, err := api.NewApp(bootstrap)
	if err != nil {
		log.Fatalf("创建 API 应用失败: %v", err)
	}

	go func() {
		if err := application.Run(""); err != nil && err != http.ErrServerClosed {
			log.Printf("API 服务异常退出: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := application.Shutdown(ctx); err != nil {
		log.Printf("关闭失败: %v", err)
	}
	log.Println("API 服务已关闭")
}

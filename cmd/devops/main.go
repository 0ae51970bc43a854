// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// devops 启动 Eino Dev 调试服务并编译摘要 map-reduce 图，供 IDE 插件（Eino Dev）连接后进行可视化调试。
// 使用：go run ./cmd/devops；在 IDE 中配置连接地址 127.0.0.1:52538 后选择编排进行 Test Run。
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino-ext/devops"
	"github.com/joho/godotenv"

	"finance-assistant/internal/app"
	"finance-assistant/pkg/config"
)

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	// 1. 先初始化 Eino Dev 调试服务（必须在任何 Compile 之前调用）
	if err := devops.Init(ctx); err != nil {
		log.Fatalf("[eino dev] init failed: %v", err)
	}

	cfg, err := config.LoadAPIConfig()
	if err != nil {
		log.Fatalf("[eino dev] load config: %v", err)
	}

	// 2. Bootstrap 会编译摘要图，插件通过已编译的 artifact 列表展示
	b, err := app.NewBootstrap(ctx, cfg)
	if err != nil {
		log.Fatalf("[eino dev] bootstrap: %v", err)
	}
	defer b.Close()

	log.Println("[eino dev] server listening on 127.0.0.1:52538; open Eino Dev in IDE and configure this address to debug")
	log.Println("[eino dev] press Ctrl+C to exit")

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs

	log.Println("[eino dev] shutting down")
}

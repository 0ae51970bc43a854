package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"finance-assistant/internal/app"
	"finance-assistant/internal/conversation"
	"finance-assistant/pkg/config"
)

const version = "finance-assistant cli 0.1.0"

func main() {
	_ = godotenv.Load()
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(argv []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(argv) < 1 {
		printUsage(stdout)
		return 0
	}
	cmd, args := argv[0], argv[1:]
	client := newClient(apiBaseURL())
	switch cmd {
	case "version":
		fmt.Fprintln(stdout, version)
	case "health":
		out, err := client.health()
		if err != nil {
			fmt.Fprintf(stderr, "健康检查失败: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, prettyJSON(out))
	case "config":
		return runConfig(stdout, stderr)
	case "server":
		if len(args) > 0 && args[0] == "start" {
			return runServerStart(stderr)
		}
		fmt.Fprintf(stderr, "Usage: finassist server start\n")
		return 1
	case "chat":
		if err := runChat(client, stdin, stdout); err != nil {
			fmt.Fprintf(stderr, "chat: %v\n", err)
			return 1
		}
	case "report":
		return runReport(client, args, stdout, stderr)
	case "history":
		records, err := client.history()
		if err != nil {
			fmt.Fprintf(stderr, "获取报告列表失败: %v\n", err)
			return 1
		}
		fmt.Fprintln(stdout, prettyJSON(records))
	case "download":
		if len(args) < 1 {
			fmt.Fprintf(stderr, "Usage: finassist download <filename> [dir]\n")
			return 1
		}
		dir := "."
		if len(args) > 1 {
			dir = args[1]
		}
		return runDownload(client, args[0], dir, stdout, stderr)
	case "index-glossary":
		return runIndexGlossary(stdout, stderr)
	default:
		printUsage(stdout)
		return 1
	}
	return 0
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: finassist <command> [args]")
	fmt.Fprintln(w, "  version                  - 显示版本")
	fmt.Fprintln(w, "  health                   - 健康检查（FINASSIST_API_URL，默认 http://localhost:5000）")
	fmt.Fprintln(w, "  config                   - 显示配置概要")
	fmt.Fprintln(w, "  server start             - 启动 API 服务（go run ./cmd/api）")
	fmt.Fprintln(w, "  chat                     - 交互式对话；/report 生成报告，/reset 清空上下文，exit 退出")
	fmt.Fprintln(w, "  report [summary-json]    - 按 summary 生成报告，如 '{\"company\":\"Apple Inc.\"}'")
	fmt.Fprintln(w, "  history                  - 列出已生成的报告")
	fmt.Fprintln(w, "  download <file> [dir]    - 下载报告文件")
	fmt.Fprintln(w, "  index-glossary           - 在本地向量后端重建术语表索引")
}

func runConfig(stdout, stderr io.Writer) int {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		fmt.Fprintf(stderr, "加载配置失败: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "api.host=%s\n", cfg.API.Host)
	fmt.Fprintf(stdout, "api.port=%d\n", cfg.API.Port)
	fmt.Fprintf(stdout, "model.defaults.llm=%s\n", cfg.Model.Defaults.LLM)
	fmt.Fprintf(stdout, "model.defaults.embedding=%s\n", cfg.Model.Defaults.Embedding)
	fmt.Fprintf(stdout, "storage.vector.type=%s\n", cfg.Storage.Vector.Type)
	fmt.Fprintf(stdout, "storage.metadata.type=%s\n", cfg.Storage.Metadata.Type)
	return 0
}

func runServerStart(stderr io.Writer) int {
	c := exec.Command("go", "run", "./cmd/api")
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	c.Dir = "."
	if err := c.Run(); err != nil {
		fmt.Fprintf(stderr, "server start: %v\n", err)
		return 1
	}
	return 0
}

// runChat 在本地维护对话历史与 summary，每轮整体提交给 /api/query
func runChat(client *apiClient, in io.Reader, out io.Writer) error {
	var history conversation.History
	summary := conversation.Summary{}
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		msg := strings.TrimSpace(scanner.Text())
		switch msg {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "/reset":
			history, summary = nil, conversation.Summary{}
			fmt.Fprintln(out, "上下文已清空")
			continue
		case "/report":
			r, err := client.generateReport(summary)
			if err != nil {
				fmt.Fprintf(out, "生成报告失败: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "%s\n\n%s\n", r.Title(), r.Summary)
			if r.DownloadURL != "" {
				fmt.Fprintf(out, "下载: %s\n", r.DownloadURL)
			}
			continue
		}

		history = append(history, conversation.NewTurn("user", msg))
		reply, next, err := client.query(history, summary)
		if err != nil {
			fmt.Fprintf(out, "发送失败: %v\n", err)
			history = history[:len(history)-1]
			continue
		}
		history = append(history, conversation.NewTurn("model", reply))
		if next != nil {
			summary = next
		}
		fmt.Fprintln(out, reply)
	}
}

func runReport(client *apiClient, args []string, stdout, stderr io.Writer) int {
	summary := conversation.Summary{}
	if len(args) > 0 {
		if err := json.Unmarshal([]byte(args[0]), &summary); err != nil {
			fmt.Fprintf(stderr, "summary 不是合法的 JSON 对象: %v\n", err)
			return 1
		}
	}
	r, err := client.generateReport(summary)
	if err != nil {
		fmt.Fprintf(stderr, "生成报告失败: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, prettyJSON(r))
	return 0
}

func runDownload(client *apiClient, name, dir string, stdout, stderr io.Writer) int {
	data, err := client.download(name)
	if err != nil {
		fmt.Fprintf(stderr, "下载失败: %v\n", err)
		return 1
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0644); err != nil {
		fmt.Fprintf(stderr, "写入文件失败: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, path)
	return 0
}

func runIndexGlossary(stdout, stderr io.Writer) int {
	cfg, err := config.LoadAPIConfig()
	if err != nil {
		fmt.Fprintf(stderr, "加载配置失败: %v\n", err)
		return 1
	}
	ctx := context.Background()
	b, err := app.NewBootstrap(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderr, "初始化失败: %v\n", err)
		return 1
	}
	defer b.Close()
	if !b.Glossary.Enabled() {
		fmt.Fprintln(stderr, "未配置 Embedding 或 glossary.path，无法建立术语表索引")
		return 1
	}
	n, err := b.Glossary.Index(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "术语表索引失败: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "indexed %d glossary entries\n", n)
	return 0
}

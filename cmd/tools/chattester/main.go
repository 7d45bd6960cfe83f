package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/campuscare/support-chat/backend/internal/config"
	modelchat "github.com/campuscare/support-chat/backend/internal/model/chat"
	"github.com/campuscare/support-chat/backend/internal/service/ai"
	"github.com/campuscare/support-chat/backend/internal/service/chat"
	"github.com/campuscare/support-chat/backend/internal/store"
	"github.com/campuscare/support-chat/backend/pkg/logging"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: chattester [flags]\n\nRuns messages through the chat pipeline in-process.\n\n")
		flag.PrintDefaults()
	}
	userID := flag.String("user", "manual-tester", "userId sent with every message")
	message := flag.String("message", "", "single message to send; reads one message per line from stdin when empty")
	useStore := flag.Bool("persist", false, "write records to the configured store instead of memory")
	timeout := flag.Duration("timeout", 45*time.Second, "per-message timeout")
	level := flag.String("log", "warn", "log level")
	showSummary := flag.Bool("summary", false, "print the records kept for -user when done (in-memory store only)")
	flag.Parse()

	_ = godotenv.Load()
	logger := logging.New(*level)
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return 2
	}

	ctx := context.Background()
	svc, mem, err := buildService(ctx, cfg, *useStore, logger)
	if err != nil {
		logger.Error("failed to build pipeline", zap.Error(err))
		return 2
	}

	var exit int
	if *message != "" {
		exit = run(ctx, svc, *userID, *message, *timeout, os.Stdout)
	} else {
		exit = runLines(ctx, svc, *userID, *timeout, os.Stdin, os.Stdout)
	}

	if *showSummary && mem != nil {
		summarize(mem, *userID, os.Stdout)
	}
	return exit
}

func runLines(ctx context.Context, svc *chat.Service, userID string, timeout time.Duration, in io.Reader, out io.Writer) int {
	exit := 0
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if code := run(ctx, svc, userID, line, timeout, out); code != 0 {
			exit = code
		}
	}
	return exit
}

// buildService wires the pipeline. The memory store is returned when records
// stay in-process, nil otherwise.
func buildService(ctx context.Context, cfg *config.Config, persist bool, logger *zap.Logger) (*chat.Service, *store.MemoryStore, error) {
	var (
		st  store.Store
		mem *store.MemoryStore
	)
	if persist {
		s, err := store.New(ctx, cfg.Store, logger.Named("store"))
		if err != nil {
			return nil, nil, err
		}
		st = s
	} else {
		mem = store.NewMemoryStore()
		st = mem
	}

	generator, err := ai.New(ctx, cfg.AI, ai.Options{Logger: logger.Named("ai")})
	if err != nil {
		logger.Warn("language model unavailable, only crisis messages will get a reply", zap.Error(err))
	}
	return chat.NewService(generator, st, nil, logger.Named("chat")), mem, nil
}

func run(ctx context.Context, svc *chat.Service, userID, message string, timeout time.Duration, out io.Writer) int {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := svc.Handle(ctx, chat.Request{UserID: userID, Message: message})
	elapsed := time.Since(start).Round(time.Millisecond)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err != nil {
		_ = enc.Encode(map[string]string{"message": message, "error": err.Error(), "elapsed": elapsed.String()})
		return 1
	}

	_ = enc.Encode(struct {
		Message string        `json:"message"`
		Result  chat.Response `json:"result"`
		Elapsed string        `json:"elapsed"`
	}{message, resp, elapsed.String()})
	return 0
}

func summarize(mem *store.MemoryStore, userID string, out io.Writer) {
	flagged := 0
	for _, msg := range mem.Flagged() {
		if msg.UserID == userID {
			flagged++
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(struct {
		UserID  string              `json:"userId"`
		Chats   []modelchat.Message `json:"chats"`
		Flagged int                 `json:"flagged"`
	}{userID, mem.ChatsByUser(userID), flagged})
}

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/uma-arai/sbcntr-maitred/internal/common/config"
	"github.com/uma-arai/sbcntr-maitred/internal/common/utils"
	"github.com/uma-arai/sbcntr-maitred/internal/event"
	"github.com/uma-arai/sbcntr-maitred/internal/service/booking"
	"github.com/uma-arai/sbcntr-maitred/internal/service/task"
	"github.com/uma-arai/sbcntr-maitred/internal/tool"
)

const (
	projectName = "sbcntr-maitred-upsert-reservation"
)

func main() {
	// コマンドライン引数のパース
	timeout := flag.Duration("timeout", 1*time.Minute, "ツール呼び出しのタイムアウト時間")
	input := flag.String("input", "-", "ツール呼び出しのJSONファイル（- は標準入力）")
	configPath := flag.String("config", "", "YAML設定ファイルのパス")
	flag.Parse()

	// 最後の引数として渡されたタスクトークンを取得
	// ENV=LOCALの場合はタスクトークンを取得しない
	taskToken := "DUMMY_TASK_TOKEN"
	if os.Getenv("ENV") != "LOCAL" {
		if flag.NArg() == 0 || flag.Arg(flag.NArg()-1) == "" {
			log.Fatalf("Task token is required")
		}
		taskToken = flag.Arg(flag.NArg() - 1)
	}

	// 設定の読み込み
	cfg, err := config.LoadConfigFile(*configPath, taskToken)
	if err != nil {
		log.Fatalf("Failed to load config: %v\nStack trace:\n%s", err, debug.Stack())
	}

	// X-Ray設定
	if cfg.EnableTracing {
		configureXRay()
	}

	// リクエストの読み込み
	payload, err := readInput(*input)
	if err != nil {
		log.Fatalf("Failed to read tool input: %v", err)
	}

	// Step Functionsクライアントの初期化
	var sfnClient task.SFNClient
	if os.Getenv("ENV") != "LOCAL" {
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background())
		if err != nil {
			log.Fatalf("Failed to load AWS config: %v\nStack trace:\n%s", err, debug.Stack())
		}
		sfnClient = sfn.NewFromConfig(awsCfg)
	}
	reporter := task.NewReporter(sfnClient, cfg.SFN.TaskToken)

	// サービスの初期化
	service, err := booking.NewBookingService(cfg)
	if err != nil {
		log.Fatalf("Failed to create service: %v\nStack trace:\n%s", err, debug.Stack())
	}
	defer service.Close()

	publisher := event.NewPublisher(cfg.Event)
	defer publisher.Close()

	upsert := tool.NewUpsertReservationTool(service, publisher)

	// コンテキストの作成
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// X-Rayセグメントの作成
	if cfg.EnableTracing {
		var seg *xray.Segment
		ctx, seg = xray.BeginSegment(ctx, projectName)
		defer seg.Close(nil)

		utils.AddMetadata(seg, "timeout", timeout.String())
	}

	// シグナルハンドリングの設定
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// ツール呼び出しの実行
	// 拒否もツールの結果として成功扱いで返し、呼び出し元が理由を会話に使えるようにする
	errChan := make(chan error, 1)
	go func() {
		errChan <- utils.RunWithTimeout(ctx, *timeout, func(ctx context.Context) error {
			startTime := time.Now()
			result := upsert.Invoke(ctx, payload)
			log.Printf("%s finished (invocation=%s ok=%t). Duration: %v",
				tool.UpsertReservationName, result.InvocationID, result.OK(), time.Since(startTime))
			return reporter.Success(ctx, result)
		})
	}()

	// シグナルまたはエラーの待機
	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			err = utils.GetStackWithError(err)
			log.Printf("Tool invocation failed: %v", err)

			if failErr := reporter.Failure(context.Background(), "ToolInvocationFailed", "upsert_reservation could not complete"); failErr != nil {
				log.Printf("Failed to send task failure: %v", failErr)
			}
			os.Exit(1)
		}
		log.Println("Tool invocation completed successfully")
	}
}

func configureXRay() {
	if err := xray.Configure(xray.Config{
		DaemonAddr:     "127.0.0.1:2000", // X-Rayデーモンのアドレス
		ServiceVersion: "1.0.0",
	}); err != nil {
		log.Printf("Failed to configure X-Ray: %v", err)
		// X-Ray設定失敗時はデフォルトの設定を使用
		if configErr := xray.Configure(xray.Config{}); configErr != nil {
			log.Fatalf("Failed to configure default X-Ray settings: %v", configErr)
		}
	}
	os.Setenv("AWS_XRAY_CONTEXT_MISSING", "LOG_ERROR")
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

package main

import (
	"context"
	"encoding/json"
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
	"github.com/uma-arai/sbcntr-maitred/internal/model"
	"github.com/uma-arai/sbcntr-maitred/internal/service/booking"
	"github.com/uma-arai/sbcntr-maitred/internal/service/task"
)

const (
	projectName = "sbcntr-maitred-upcoming"
)

// upcomingInput はバッチの入力です
// now を省略した場合は実行時刻を基準にします
type upcomingInput struct {
	Phones []string   `json:"phones"`
	Now    *time.Time `json:"now,omitempty"`
}

// upcomingOutput はStep Functionsに返す出力です
type upcomingOutput struct {
	Notices []model.UpcomingNotice `json:"notices"`
}

func main() {
	// コマンドライン引数のパース
	timeout := flag.Duration("timeout", 5*time.Minute, "バッチ処理のタイムアウト時間")
	inputPath := flag.String("input", "-", "電話番号一覧のJSONファイル（- は標準入力）")
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

	input, err := readInput(*inputPath)
	if err != nil {
		log.Fatalf("Failed to read batch input: %v", err)
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

	// コンテキストの作成
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// X-Rayセグメントの作成
	if cfg.EnableTracing {
		var seg *xray.Segment
		ctx, seg = xray.BeginSegment(ctx, projectName)
		defer seg.Close(nil)

		utils.AddMetadata(seg, "phone_count", len(input.Phones))
		utils.AddMetadata(seg, "timeout", timeout.String())
	}

	now := time.Now()
	if input.Now != nil {
		now = *input.Now
	}

	// シグナルハンドリング
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// バッチ処理の実行
	errChan := make(chan error, 1)
	go func() {
		errChan <- utils.RunWithTimeout(ctx, *timeout, func(ctx context.Context) error {
			notices, err := service.UpcomingNotices(ctx, input.Phones, now)
			if err != nil {
				return fmt.Errorf("failed to build upcoming notices: %w", err)
			}
			for _, notice := range notices {
				log.Printf("Upcoming reservation %d for %s", notice.ReservationID, model.MaskPhone(notice.Phone))
			}
			return reporter.Success(ctx, upcomingOutput{Notices: notices})
		})
	}()

	// シグナルを待機
	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
		cancel()
	case err := <-errChan:
		if err != nil {
			log.Printf("Batch process failed: %v", utils.GetStackWithError(err))

			if failErr := reporter.Failure(context.Background(), "BatchProcessFailed", "upcoming notices could not be built"); failErr != nil {
				log.Printf("Failed to send task failure: %v", failErr)
			}
			os.Exit(1)
		}
		log.Println("Batch process completed successfully")
	}
}

// readInput はバッチの入力を読み込みます
func readInput(path string) (*upcomingInput, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	var input upcomingInput
	if err := json.NewDecoder(r).Decode(&input); err != nil {
		return nil, fmt.Errorf("failed to parse batch input: %w", err)
	}
	return &input, nil
}

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/spf13/cobra"
	"github.com/uma-arai/sbcntr-maitred/internal/common/config"
	"github.com/uma-arai/sbcntr-maitred/internal/common/utils"
	"github.com/uma-arai/sbcntr-maitred/internal/printer"
	"github.com/uma-arai/sbcntr-maitred/internal/service/booking"
)

const projectName = "sbcntr-maitred"

var versionInfo = "dev"

// globalOptions は全コマンド共通のフラグです
type globalOptions struct {
	configPath string
	timeout    time.Duration
}

// NewRootCommand はサブコマンドを含むルートコマンドを作成します
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "maitred",
		Short: "maitred - reservation and client store for the booking assistant",
		Long: `maitred records restaurant reservations for a conversational booking assistant.

It resolves clients by id or display name, stores one reservation per client and
time slot, and answers "what is this guest's next reservation" for inbound messages.`,
		Version: versionInfo,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML設定ファイルのパス（環境変数が優先されます）")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "コマンドのタイムアウト時間")

	root.AddCommand(
		newUpsertCommand(opts),
		newUpcomingCommand(opts),
		newShowCommand(opts),
	)
	return root
}

// Execute はルートコマンドを実行します
func Execute() error {
	return NewRootCommand().Execute()
}

// SetVersionInfo はバージョン情報を設定します
func SetVersionInfo(version, commit string) {
	versionInfo = fmt.Sprintf("%s (commit: %s)", version, commit)
}

func newPrinter(cmd *cobra.Command) *printer.Printer {
	return printer.New(cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// session はコマンド実行中に使う設定とサービスです
type session struct {
	cfg     *config.Config
	service *booking.BookingService
	ctx     context.Context
	close   func()
}

// openSession は設定を読み込み、予約サービスに接続します
// トレースが有効な場合はコマンド単位でセグメントを作成します
func openSession(cmd *cobra.Command, opts *globalOptions, name string) (*session, error) {
	cfg, err := config.LoadConfigFile(opts.configPath, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	service, err := booking.NewBookingService(cfg)
	if err != nil {
		return nil, utils.GetStackWithError(fmt.Errorf("failed to create service: %w", err))
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)

	var seg *xray.Segment
	if cfg.EnableTracing {
		ctx, seg = xray.BeginSegment(ctx, projectName+"."+name)
	}

	return &session{
		cfg:     cfg,
		service: service,
		ctx:     ctx,
		close: func() {
			utils.CloseSegment(seg, nil)
			cancel()
			service.Close()
		},
	}, nil
}

package task

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
)

// SFNClient はStep Functionsのタスク結果の通知に使うAPIです
type SFNClient interface {
	SendTaskSuccess(ctx context.Context, params *sfn.SendTaskSuccessInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskSuccessOutput, error)
	SendTaskFailure(ctx context.Context, params *sfn.SendTaskFailureInput, optFns ...func(*sfn.Options)) (*sfn.SendTaskFailureOutput, error)
}

// Reporter はタスクの結果をStep Functionsに通知します
// ローカル環境やクライアントが未設定の場合は通知をスキップします
type Reporter struct {
	client    SFNClient
	taskToken string
}

// NewReporter は新しいReporterを作成します
func NewReporter(client SFNClient, taskToken string) *Reporter {
	return &Reporter{client: client, taskToken: taskToken}
}

func (r *Reporter) skip() bool {
	return os.Getenv("ENV") == "LOCAL" || r.client == nil
}

// Success はタスクの成功と出力を通知します
func (r *Reporter) Success(ctx context.Context, output any) error {
	// 出力をJSONに変換
	body, err := json.Marshal(output)
	if err != nil {
		return fmt.Errorf("failed to marshal task output: %w", err)
	}

	// ローカルの場合はStep Functionsの処理をスキップ
	if r.skip() {
		log.Printf("Local environment detected. Skipping Step Functions task success notification: %s", string(body))
		return nil
	}

	if r.taskToken == "" {
		return fmt.Errorf("SFN_TASK_TOKEN is not set in config")
	}

	// SendTaskSuccess APIを呼び出す
	_, err = r.client.SendTaskSuccess(ctx, &sfn.SendTaskSuccessInput{
		TaskToken: aws.String(r.taskToken),
		Output:    aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("failed to send task success: %w", err)
	}

	log.Printf("Successfully sent task success with output: %s", string(body))
	return nil
}

// Failure はタスクの失敗を通知します
// cause はStep Functionsの実行履歴に残るため、内部の詳細を含めないようにします
func (r *Reporter) Failure(ctx context.Context, errorName, cause string) error {
	if r.skip() {
		log.Printf("Local environment detected. Skipping Step Functions task failure notification")
		return nil
	}

	_, err := r.client.SendTaskFailure(ctx, &sfn.SendTaskFailureInput{
		TaskToken: aws.String(r.taskToken),
		Error:     aws.String(errorName),
		Cause:     aws.String(cause),
	})
	if err != nil {
		return fmt.Errorf("failed to send task failure: %w", err)
	}
	return nil
}

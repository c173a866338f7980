package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/uma-arai/sbcntr-maitred/internal/event"
	"github.com/uma-arai/sbcntr-maitred/internal/tool"
)

type upsertOptions struct {
	date            string
	time            string
	covers          int
	clientID        int64
	clientName      string
	occasion        string
	seating         string
	dietary         string
	specialRequests string
	source          string
	languageGuess   string
	createdByBot    bool
	payloadPath     string
}

func newUpsertCommand(global *globalOptions) *cobra.Command {
	opts := &upsertOptions{}

	cmd := &cobra.Command{
		Use:     tool.UpsertReservationName,
		Aliases: []string{"upsert-reservation", "upsert"},
		Short:   "Create or update the reservation of a client for a time slot",
		Long: `Create or update a reservation.

Use --client-id for an existing client, or --client-name to find the client by
name (a placeholder client is created when nobody has that name). A second call
for the same client, date and time replaces the party size and the metadata.

The request can also be given as the tool-call JSON with --json (use - for stdin).`,
		Example: `  maitred upsert_reservation --client-name "Jane Doe" --date 2024-01-02 --time 21:00 --covers 4 --occasion birthday
  echo '{"client_id":7,"date":"2024-01-02","time":"21:00","covers":2}' | maitred upsert_reservation --json -`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpsert(cmd, global, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.date, "date", "", "予約日 (YYYY-MM-DD)")
	flags.StringVar(&opts.time, "time", "", "予約時刻 (HH:MM, 24時間表記)")
	flags.IntVar(&opts.covers, "covers", 0, "人数")
	flags.Int64Var(&opts.clientID, "client-id", 0, "登録済みの顧客ID")
	flags.StringVar(&opts.clientName, "client-name", "", "顧客の表示名")
	flags.StringVar(&opts.occasion, "occasion", "", "利用目的（誕生日など）")
	flags.StringVar(&opts.seating, "seating", "", "席の希望")
	flags.StringVar(&opts.dietary, "dietary", "", "食事の制限")
	flags.StringVar(&opts.specialRequests, "special-requests", "", "その他の要望")
	flags.StringVar(&opts.source, "source", "", "予約の受付経路")
	flags.StringVar(&opts.languageGuess, "language", "", "会話の言語")
	flags.BoolVar(&opts.createdByBot, "created-by-bot", false, "自動応答による予約かどうか")
	flags.StringVar(&opts.payloadPath, "json", "", "ツール呼び出しのJSONファイル（- は標準入力）")
	// --json とリクエスト項目のフラグは併用できない
	for _, name := range []string{
		"date", "time", "covers", "client-id", "client-name",
		"occasion", "seating", "dietary", "special-requests", "source", "language", "created-by-bot",
	} {
		cmd.MarkFlagsMutuallyExclusive("json", name)
	}

	return cmd
}

func runUpsert(cmd *cobra.Command, global *globalOptions, opts *upsertOptions) error {
	p := newPrinter(cmd)

	s, err := openSession(cmd, global, "upsert_reservation")
	if err != nil {
		return p.Error("Failed to start", err.Error())
	}
	defer s.close()

	publisher := event.NewPublisher(s.cfg.Event)
	defer publisher.Close()
	upsert := tool.NewUpsertReservationTool(s.service, publisher)

	var result tool.Result
	if opts.payloadPath != "" {
		payload, err := readPayload(cmd, opts.payloadPath)
		if err != nil {
			return p.Error("Failed to read the request", err.Error())
		}
		result = upsert.Invoke(s.ctx, payload)
	} else {
		result = upsert.InvokeRequest(s.ctx, opts.request(cmd))
	}

	if !result.OK() {
		return p.Error("Reservation rejected", result.Rejection.Reason,
			fmt.Sprintf("code: %s", result.Rejection.Code),
			fmt.Sprintf("invocation: %s", result.InvocationID))
	}

	p.Success("Reservation %d saved", result.ReservationID)
	p.Field("invocation", result.InvocationID)

	reservation, err := s.service.GetReservation(s.ctx, result.ReservationID)
	if err != nil {
		p.Warning("Saved, but could not read the reservation back: %v", err)
		return nil
	}
	annotation, err := json.Marshal(reservation.Annotation)
	if err != nil {
		return p.Error("Failed to render the reservation", err.Error())
	}
	p.Field("client", reservation.ClientID)
	p.Field("at", reservation.ReservationAt.Format("2006-01-02 15:04"))
	p.Field("covers", reservation.Covers)
	p.Field("annotation", string(annotation))
	return nil
}

// request はフラグからツール呼び出しの入力を作成します
// 指定されなかったフラグは値なしとして扱います
func (o *upsertOptions) request(cmd *cobra.Command) tool.UpsertReservationRequest {
	flags := cmd.Flags()
	optional := func(name, value string) *string {
		if !flags.Changed(name) {
			return nil
		}
		return &value
	}

	req := tool.UpsertReservationRequest{
		Date:   o.date,
		Time:   o.time,
		Covers: o.covers,
	}
	if flags.Changed("client-id") {
		id := o.clientID
		req.ClientID = &id
	}
	req.ClientName = optional("client-name", o.clientName)
	req.Occasion = optional("occasion", o.occasion)
	req.Seating = optional("seating", o.seating)
	req.Dietary = optional("dietary", o.dietary)
	req.SpecialRequests = optional("special-requests", o.specialRequests)
	req.Source = optional("source", o.source)
	req.LanguageGuess = optional("language", o.languageGuess)
	if flags.Changed("created-by-bot") {
		bot := o.createdByBot
		req.CreatedByBot = &bot
	}
	return req
}

func readPayload(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(path)
}

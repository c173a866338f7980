package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/uma-arai/sbcntr-maitred/internal/model"
)

type upcomingOptions struct {
	phones []string
	now    string
}

func newUpcomingCommand(global *globalOptions) *cobra.Command {
	opts := &upcomingOptions{}

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "Show the next reservation of the clients behind inbound phone numbers",
		Long: `Show the FYI notice that is prepended to the conversation for each inbound
sender: the soonest reservation of the client within the upcoming window.`,
		Example: `  maitred upcoming --phone +14155550123
  maitred upcoming --phone +14155550123 --now 2024-01-01T10:00`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpcoming(cmd, global, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.phones, "phone", nil, "送信元の電話番号（E.164形式、複数指定可）")
	cmd.Flags().StringVar(&opts.now, "now", "", "基準時刻 (YYYY-MM-DDTHH:MM、省略時は現在時刻)")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

func runUpcoming(cmd *cobra.Command, global *globalOptions, opts *upcomingOptions) error {
	p := newPrinter(cmd)

	now := time.Now()
	if opts.now != "" {
		parsed, err := parseNow(opts.now)
		if err != nil {
			return p.Error("Invalid --now", err.Error(), "use YYYY-MM-DDTHH:MM, for example 2024-01-01T10:00")
		}
		now = parsed
	}

	s, err := openSession(cmd, global, "upcoming")
	if err != nil {
		return p.Error("Failed to start", err.Error())
	}
	defer s.close()

	notices, err := s.service.UpcomingNotices(s.ctx, opts.phones, now)
	if err != nil {
		return p.Error("Failed to look up upcoming reservations", err.Error())
	}

	found := map[string]bool{}
	for _, notice := range notices {
		found[notice.Phone] = true
		p.Success("%s: %s", model.MaskPhone(notice.Phone), notice.Message)
	}
	for _, phone := range opts.phones {
		if !found[phone] {
			p.Warning("%s: no upcoming reservation", model.MaskPhone(phone))
		}
	}
	return nil
}

func parseNow(value string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04", time.RFC3339} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a date and time", value)
}

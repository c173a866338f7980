package commands

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/uma-arai/sbcntr-maitred/internal/model"
)

func newShowCommand(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a client or a reservation",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "client <id>",
			Short: "Show a client",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runShowClient(cmd, global, args[0])
			},
		},
		&cobra.Command{
			Use:   "reservation <id>",
			Short: "Show a reservation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runShowReservation(cmd, global, args[0])
			},
		},
	)
	return cmd
}

func parseID(value string) (int64, error) {
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%q is not a valid id", value)
	}
	return id, nil
}

func runShowClient(cmd *cobra.Command, global *globalOptions, arg string) error {
	p := newPrinter(cmd)

	id, err := parseID(arg)
	if err != nil {
		return p.Error("Invalid client id", err.Error())
	}

	s, err := openSession(cmd, global, "show.client")
	if err != nil {
		return p.Error("Failed to start", err.Error())
	}
	defer s.close()

	client, err := s.service.GetClient(s.ctx, id)
	if err != nil {
		return p.Error("Client not available", err.Error())
	}

	p.Info("%s", client.FullName())
	p.Field("id", client.ID)
	if client.IsPlaceholder(s.cfg.Booking.PlaceholderPhone) {
		p.Field("phone", "(placeholder)")
	} else {
		p.Field("phone", model.MaskPhone(client.PhoneNumber))
	}
	if client.Email != nil {
		p.Field("email", *client.Email)
	}
	if client.PreferredSeating != nil {
		p.Field("seating", *client.PreferredSeating)
	}
	p.Field("marketing", client.AllowMarketing)
	return nil
}

func runShowReservation(cmd *cobra.Command, global *globalOptions, arg string) error {
	p := newPrinter(cmd)

	id, err := parseID(arg)
	if err != nil {
		return p.Error("Invalid reservation id", err.Error())
	}

	s, err := openSession(cmd, global, "show.reservation")
	if err != nil {
		return p.Error("Failed to start", err.Error())
	}
	defer s.close()

	reservation, err := s.service.GetReservation(s.ctx, id)
	if err != nil {
		return p.Error("Reservation not available", err.Error())
	}

	annotation, err := json.Marshal(reservation.Annotation)
	if err != nil {
		return p.Error("Failed to render the reservation", err.Error())
	}

	p.Info("Reservation %d", reservation.ID)
	p.Field("client", reservation.ClientID)
	p.Field("at", reservation.ReservationAt.Format("2006-01-02 15:04"))
	p.Field("covers", reservation.Covers)
	p.Field("annotation", string(annotation))
	return nil
}

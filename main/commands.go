package main

import (
	"fmt"

	"github.com/adrianmo/go-nmea"
	"github.com/spf13/cobra"

	"github.com/b3nn0/mt3339/common"
	"github.com/b3nn0/mt3339/gps"
)

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := gps.ListPorts()
			if err != nil {
				return fmt.Errorf("list ports: %w", err)
			}
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func newQueryCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "query",
		Short: "Check that a receiver answers and print its firmware release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}
			g, ok, err := openReceiver(cfg, log, nil)
			if err != nil {
				return err
			}
			defer g.Stop()
			if !ok {
				return fmt.Errorf("no response from %s at %d baud", cfg.Serial.Port, cfg.Serial.Baud)
			}
			r := g.LastResponse()
			fmt.Fprintf(cmd.OutOrStdout(), "release: %s\nbuild: %s\nproduct: %s\n", r.Field(0), r.Field(1), r.Field(2))
			return nil
		},
	}
}

func newConfigureCmd(flags *rootFlags) *cobra.Command {
	var (
		setBaud int
		rate    float64
		outputs []string
	)
	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Set output sentences, fix rate and baud rate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("outputs") {
				cfg.Driver.Outputs = outputs
			}
			if cmd.Flags().Changed("rate") {
				cfg.Driver.RateHz = rate
			}
			if cmd.Flags().Changed("set-baud") {
				cfg.Driver.TargetBaud = setBaud
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			g, ok, err := openReceiver(cfg, log, nil)
			if err != nil {
				return err
			}
			defer g.Stop()
			if !ok {
				return fmt.Errorf("no response from %s at %d baud", cfg.Serial.Port, cfg.Serial.Baud)
			}

			// Output flags follow the attached handlers.
			for _, k := range cfg.OutputKinds() {
				g.Attach(k, func(nmea.Sentence) {})
			}
			var failed []string
			if !g.SetOutputs() {
				failed = append(failed, "outputs")
			}
			if !g.SetRate(cfg.Driver.RateHz) {
				failed = append(failed, "rate")
			}
			if cfg.Driver.TargetBaud != 0 && cfg.Driver.TargetBaud != cfg.Serial.Baud {
				ok, err := g.Reopen(cfg.Serial.Port, gps.BaudRate(cfg.Driver.TargetBaud))
				if err != nil {
					return err
				}
				if !ok {
					failed = append(failed, "baud")
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("receiver rejected: %v", failed)
			}
			log.Info().
				Strs("outputs", common.NormalizeNames(cfg.Driver.Outputs)).
				Float64("rate_hz", cfg.Driver.RateHz).
				Int("fix_interval_ms", gps.FixIntervalMs(cfg.Driver.RateHz)).
				Msg("receiver configured")
			return nil
		},
	}
	cmd.Flags().IntVar(&setBaud, "set-baud", 0, "switch the receiver to this baud rate")
	cmd.Flags().Float64Var(&rate, "rate", 0, "fix rate in Hz (0.1 to 10)")
	cmd.Flags().StringSliceVar(&outputs, "outputs", nil, "sentences to enable (GLL,RMC,VTG,GGA,GSA,GSV,ZDA)")
	return cmd
}

package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/adrianmo/go-nmea"
	"github.com/dustin/go-humanize"
	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/b3nn0/mt3339/config"
	"github.com/b3nn0/mt3339/gps"
)

// sentenceStatus is what the stream command remembers per sentence kind.
type sentenceStatus struct {
	Last     string
	Count    uint64
	LastSeen time.Time
}

type sentenceTable struct {
	m cmap.ConcurrentMap[string, sentenceStatus]
}

func newSentenceTable() *sentenceTable {
	return &sentenceTable{m: cmap.New[sentenceStatus]()}
}

func (t *sentenceTable) record(s nmea.Sentence, now time.Time) {
	t.m.Upsert(s.DataType(), sentenceStatus{Last: s.String(), LastSeen: now},
		func(exist bool, old, nv sentenceStatus) sentenceStatus {
			if exist {
				nv.Count = old.Count + 1
			} else {
				nv.Count = 1
			}
			return nv
		})
}

// summary renders one line per kind seen so far, sorted by kind.
func (t *sentenceTable) summary(now time.Time) []string {
	items := t.m.Items()
	keys := make([]string, 0, len(items))
	for k := range items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		st := items[k]
		out = append(out, fmt.Sprintf("%s: %s received, last %s", k, humanize.Comma(int64(st.Count)), humanize.RelTime(st.LastSeen, now, "ago", "from now")))
	}
	return out
}

func newStreamCmd(flags *rootFlags) *cobra.Command {
	var summaryEvery time.Duration
	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Enable the configured sentences and log them until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := resolveConfig(cmd, flags)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			m := serveMetrics(ctx, cfg.Metrics.Listen, log)
			g, _, err := openReceiver(cfg, log, m)
			if err != nil {
				return err
			}
			defer g.Stop()

			if cfg.Driver.TargetBaud != 0 && cfg.Driver.TargetBaud != cfg.Serial.Baud {
				ok, err := g.Reopen(cfg.Serial.Port, gps.BaudRate(cfg.Driver.TargetBaud))
				if err != nil {
					return err
				}
				if !ok {
					log.Warn().Int("baud", cfg.Driver.TargetBaud).Msg("receiver kept its baud rate")
				}
			}

			table := newSentenceTable()
			applyDriverConfig(g, cfg, log, table)

			if flags.configPath != "" {
				go func() {
					err := config.Watch(ctx, flags.configPath, config.DefaultDebounce, log, func(c config.Config) {
						applyDriverConfig(g, c, log, table)
					})
					if err != nil {
						log.Warn().Err(err).Msg("config changes will not be applied")
					}
				}()
			}

			ticker := time.NewTicker(summaryEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					log.Info().Msg("received signal, stopping")
					return nil
				case now := <-ticker.C:
					read, written := g.Stats()
					log.Info().
						Str("read", humanize.Bytes(read)).
						Str("written", humanize.Bytes(written)).
						Strs("sentences", table.summary(now)).
						Msg("stream summary")
				}
			}
		},
	}
	cmd.Flags().DurationVar(&summaryEvery, "summary", 10*time.Second, "interval between summary log lines")
	return cmd
}

// applyDriverConfig attaches a handler for exactly the configured outputs and
// pushes the output selection and fix rate to the receiver.
func applyDriverConfig(g *gps.MT3339, cfg config.Config, log zerolog.Logger, table *sentenceTable) {
	want := map[gps.MessageKind]bool{}
	for _, k := range cfg.OutputKinds() {
		want[k] = true
	}
	for _, k := range gps.Kinds() {
		if want[k] {
			g.Attach(k, sentenceLogger(log, table))
		} else {
			g.Detach(k)
		}
	}
	g.SetTimeout(cfg.Driver.Timeout)
	if !g.SetOutputs() {
		log.Warn().Strs("outputs", cfg.Driver.Outputs).Msg("receiver did not confirm output selection")
	}
	if !g.SetRate(cfg.Driver.RateHz) {
		log.Warn().Float64("rate_hz", cfg.Driver.RateHz).Msg("receiver did not confirm fix rate")
	}
}

func sentenceLogger(log zerolog.Logger, table *sentenceTable) func(nmea.Sentence) {
	return func(s nmea.Sentence) {
		table.record(s, time.Now())
		log.Debug().Str("type", s.DataType()).Str("talker", s.TalkerID()).Msg(s.String())
	}
}

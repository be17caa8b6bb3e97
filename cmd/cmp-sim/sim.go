package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/taurusgroup/cmp-ecdsa/internal/bip32"
	"github.com/taurusgroup/cmp-ecdsa/pkg/ecdsa"
	"github.com/taurusgroup/cmp-ecdsa/pkg/math/curve"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
	"github.com/taurusgroup/cmp-ecdsa/pkg/pool"
	"github.com/taurusgroup/cmp-ecdsa/pkg/protocol"
	"github.com/taurusgroup/cmp-ecdsa/protocols/cmp"
)

const metricsNamespace = "cmpsim"

type options struct {
	Parties   int
	Threshold int
	Signers   int
	Message   string
	Derive    bip32.Path
	Export    string
	Metrics   bool
	Recover   bool
}

func optionsFromViper() (*options, error) {
	opts := &options{
		Parties:   viper.GetInt("parties"),
		Threshold: viper.GetInt("threshold"),
		Signers:   viper.GetInt("signers"),
		Message:   viper.GetString("message"),
		Export:    viper.GetString("export"),
		Metrics:   viper.GetBool("metrics"),
		Recover:   viper.GetBool("recover"),
	}
	if opts.Signers == 0 {
		opts.Signers = opts.Threshold
	}
	if opts.Parties < 1 {
		return nil, fmt.Errorf("parties must be positive, got %d", opts.Parties)
	}
	if opts.Threshold < 1 || opts.Threshold > opts.Parties {
		return nil, fmt.Errorf("threshold must be between 1 and %d, got %d", opts.Parties, opts.Threshold)
	}
	if opts.Signers < opts.Threshold || opts.Signers > opts.Parties {
		return nil, fmt.Errorf("signers must be between %d and %d, got %d", opts.Threshold, opts.Parties, opts.Signers)
	}
	if opts.Recover && recoveryHelpers(opts.Threshold) >= opts.Parties {
		return nil, fmt.Errorf("recovery needs more than %d parties, got %d", recoveryHelpers(opts.Threshold), opts.Parties)
	}
	path, err := bip32.ParsePath(viper.GetString("derive"))
	if err != nil {
		return nil, err
	}
	opts.Derive = path
	return opts, nil
}

// report holds what a simulation produced.
type report struct {
	KeygenSSID  []byte
	RecoverSSID []byte
	SignSSID    []byte
	Path        bip32.Path
	PublicKey   []byte
	Address     []byte
	Signature   []byte
	Exported    []string
	Metrics     []string
}

func (r *report) print(w io.Writer) {
	fmt.Fprintf(w, "keygen ssid:  %s\n", hex.EncodeToString(r.KeygenSSID))
	if len(r.RecoverSSID) > 0 {
		fmt.Fprintf(w, "recover ssid: %s\n", hex.EncodeToString(r.RecoverSSID))
	}
	fmt.Fprintf(w, "sign ssid:    %s\n", hex.EncodeToString(r.SignSSID))
	if len(r.Path) > 0 {
		fmt.Fprintf(w, "path:         %s\n", r.Path)
	}
	fmt.Fprintf(w, "public key:   %s\n", hex.EncodeToString(r.PublicKey))
	fmt.Fprintf(w, "address:      0x%s\n", hex.EncodeToString(r.Address))
	fmt.Fprintf(w, "signature:    %s\n", hex.EncodeToString(r.Signature))
	for _, file := range r.Exported {
		fmt.Fprintf(w, "exported:     %s\n", file)
	}
	for _, line := range r.Metrics {
		fmt.Fprintln(w, line)
	}
}

// simulate runs a key generation between opts.Parties parties, and signs the hash of opts.Message
// with the first opts.Signers of them.
func simulate(ctx context.Context, opts *options, logger zerolog.Logger) (*report, error) {
	group := curve.Secp256k1{}
	pl := pool.NewPool(0)
	defer pl.TearDown()

	registry := prometheus.NewRegistry()
	metrics := protocol.NewMetrics(metricsNamespace)
	if err := metrics.Register(registry); err != nil {
		return nil, err
	}
	ctxOpts := []protocol.Option{protocol.WithLogger(logger), protocol.WithMetrics(metrics)}

	ids := partyIDs(opts.Parties)

	keygenSession := uuid.New()
	logger.Info().Str("session", keygenSession.String()).Int("parties", len(ids)).Msg("starting keygen")
	keygenContexts, err := start(ids, keygenSession, func(id party.ID) protocol.StartFunc {
		return cmp.Keygen(group, id, ids, opts.Threshold, pl)
	}, ctxOpts...)
	if err != nil {
		return nil, err
	}
	if err = newNetwork(keygenContexts).run(ctx); err != nil {
		return nil, errors.Wrap(err, "keygen")
	}

	configs := make(map[party.ID]*cmp.Config, len(ids))
	for _, c := range keygenContexts {
		res, err := c.Result()
		if err != nil {
			return nil, errors.Wrapf(err, "keygen result of %s", c.SelfID())
		}
		cfg, ok := res.(*cmp.Config)
		if !ok {
			return nil, errors.Errorf("keygen result of %s has type %T", c.SelfID(), res)
		}
		configs[c.SelfID()] = cfg
	}

	rep := &report{
		KeygenSSID: keygenContexts[0].SSID(),
		Path:       opts.Derive,
	}
	if opts.Recover {
		if rep.RecoverSSID, err = recoverLast(ctx, configs, ids, opts.Threshold, ctxOpts, logger); err != nil {
			return nil, err
		}
	}
	if len(opts.Derive) > 0 {
		for id, cfg := range configs {
			if configs[id], err = cfg.DerivePath(opts.Derive); err != nil {
				return nil, errors.Wrapf(err, "deriving %s", opts.Derive)
			}
		}
	}
	if opts.Export != "" {
		if rep.Exported, err = export(opts.Export, configs); err != nil {
			return nil, err
		}
	}

	signers := ids[:opts.Signers]
	digest := sha256.Sum256([]byte(opts.Message))
	signSession := uuid.New()
	logger.Info().Str("session", signSession.String()).Stringer("signers", signers).Msg("starting sign")
	signContexts, err := start(signers, signSession, func(id party.ID) protocol.StartFunc {
		return cmp.Sign(configs[id], signers, digest[:], pl)
	}, ctxOpts...)
	if err != nil {
		return nil, err
	}
	if err = newNetwork(signContexts).run(ctx); err != nil {
		return nil, errors.Wrap(err, "sign")
	}

	res, err := signContexts[0].Result()
	if err != nil {
		return nil, errors.Wrap(err, "sign result")
	}
	sig, ok := res.(*ecdsa.Signature)
	if !ok {
		return nil, errors.Errorf("sign result has type %T", res)
	}
	public := configs[signers[0]].PublicPoint()
	if !sig.Verify(public, digest[:]) {
		return nil, errors.New("signature does not verify")
	}

	rep.SignSSID = signContexts[0].SSID()
	if rep.PublicKey, err = public.MarshalBinary(); err != nil {
		return nil, err
	}
	if rep.Address, err = ecdsa.EthereumAddress(public); err != nil {
		return nil, err
	}
	if rep.Signature, err = sig.SigEthereum(); err != nil {
		return nil, err
	}
	if opts.Metrics {
		if rep.Metrics, err = gather(registry); err != nil {
			return nil, err
		}
	}
	return rep, nil
}

func recoveryHelpers(threshold int) int {
	if threshold < 2 {
		return 2
	}
	return threshold
}

// recoverLast erases the share of the last party, and restores it with the first parties.
func recoverLast(ctx context.Context, configs map[party.ID]*cmp.Config, ids party.IDSlice, threshold int,
	ctxOpts []protocol.Option, logger zerolog.Logger) ([]byte, error) {
	helpers, lost := ids[:recoveryHelpers(threshold)], ids[len(ids)-1]
	original := configs[lost]
	damaged := *original
	damaged.ECDSA = nil
	configs[lost] = &damaged

	session := uuid.New()
	logger.Info().Str("session", session.String()).Str("lost", string(lost)).Stringer("helpers", helpers).Msg("starting recovery")
	contexts, err := start(append(helpers.Copy(), lost), session, func(id party.ID) protocol.StartFunc {
		return cmp.Recover(configs[id], helpers, lost, nil)
	}, ctxOpts...)
	if err != nil {
		return nil, err
	}
	if err = newNetwork(contexts).run(ctx); err != nil {
		return nil, errors.Wrap(err, "recovery")
	}

	for _, c := range contexts {
		if c.SelfID() != lost {
			continue
		}
		res, err := c.Result()
		if err != nil {
			return nil, errors.Wrap(err, "recovery result")
		}
		restored, ok := res.(*cmp.Config)
		if !ok {
			return nil, errors.Errorf("recovery result has type %T", res)
		}
		if !restored.ECDSA.Equal(original.ECDSA) {
			return nil, errors.New("restored share differs from the original")
		}
		configs[lost] = restored
	}
	return contexts[0].SSID(), nil
}

func partyIDs(n int) party.IDSlice {
	ids := make([]party.ID, n)
	for i := range ids {
		ids[i] = party.ID(fmt.Sprintf("party-%02d", i+1))
	}
	return party.NewIDSlice(ids)
}

func start(ids []party.ID, session uuid.UUID, create func(party.ID) protocol.StartFunc, opts ...protocol.Option) ([]*protocol.Context, error) {
	contexts := make([]*protocol.Context, 0, len(ids))
	for _, id := range ids {
		c, err := protocol.NewContext(create(id), session[:], opts...)
		if err != nil {
			return nil, errors.Wrapf(err, "starting %s", id)
		}
		contexts = append(contexts, c)
	}
	return contexts, nil
}

// export writes the textual encoding of every config to dir/<id>.key.
func export(dir string, configs map[party.ID]*cmp.Config) ([]string, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	files := make([]string, 0, len(configs))
	for id, c := range configs {
		text, err := c.Encode()
		if err != nil {
			return nil, errors.Wrapf(err, "encoding %s", id)
		}
		file := filepath.Join(dir, string(id)+".key")
		if err = os.WriteFile(file, []byte(text+"\n"), 0o600); err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	sort.Strings(files)
	return files, nil
}

// gather formats the counters and histograms of registry, one sample per line.
func gather(registry *prometheus.Registry) ([]string, error) {
	families, err := registry.Gather()
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			labels := ""
			for _, l := range m.GetLabel() {
				labels += fmt.Sprintf(" %s=%s", l.GetName(), l.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("%s%s %g", mf.GetName(), labels, m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("%s%s count=%d sum=%gs", mf.GetName(), labels, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}
	return lines, nil
}

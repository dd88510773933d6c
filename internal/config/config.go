package config

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/tcpcl/internal/contactd"
	"github.com/danmuck/tcpcl/internal/protocol/contact"
)

// FileConfig is the contactd config.toml key mapping.
type FileConfig struct {
	NodeID      string     `toml:"node_id" comment:"identity used in logs and metric labels"`
	Addr        string     `toml:"addr" comment:"TCPCL listen address"`
	AdminAddr   string     `toml:"admin_addr" comment:"admin HTTP address serving /health and /metrics; empty disables"`
	ReadTimeout string     `toml:"read_timeout" comment:"idle read timeout per connection; 0s disables"`
	Header      HeaderFile `toml:"header" comment:"contact header advertised to every peer"`
}

// HeaderFile is the [header] table.
type HeaderFile struct {
	CanTLS      bool   `toml:"can_tls"`
	Keepalive   uint16 `toml:"keepalive" comment:"seconds; 0 disables keepalives"`
	SegmentMRU  uint64 `toml:"segment_mru"`
	TransferMRU uint64 `toml:"transfer_mru"`
	EndpointID  string `toml:"endpoint_id" comment:"empty advertises no endpoint id"`
}

// LoadContactdConfig overlays the TOML file at path onto contactd defaults.
// Keys absent from the file keep their default value.
func LoadContactdConfig(path string) (contactd.Config, error) {
	cfg := contactd.DefaultConfig()

	var raw FileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return contactd.Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return contactd.Config{}, fmt.Errorf("config parse failed (%s): unknown keys %s", path, strings.Join(keys, ", "))
	}

	if meta.IsDefined("node_id") {
		cfg.NodeID = strings.TrimSpace(raw.NodeID)
	}
	if meta.IsDefined("addr") {
		cfg.ListenAddr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("admin_addr") {
		cfg.AdminListenAddr = strings.TrimSpace(raw.AdminAddr)
	}
	if meta.IsDefined("read_timeout") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ReadTimeout))
		if err != nil {
			return contactd.Config{}, fmt.Errorf("config parse failed (%s): read_timeout: %w", path, err)
		}
		cfg.ReadTimeout = d
	}
	if err := applyHeader(&cfg.Local, meta, raw.Header); err != nil {
		return contactd.Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return contactd.Config{}, fmt.Errorf("config invalid (%s): %w", path, err)
	}
	return cfg, nil
}

func applyHeader(h *contact.Header, meta toml.MetaData, raw HeaderFile) error {
	if meta.IsDefined("header", "can_tls") {
		if raw.CanTLS {
			h.SetFlag(contact.FlagCanTLS)
		} else {
			h.UnsetFlag(contact.FlagCanTLS)
		}
	}
	if meta.IsDefined("header", "keepalive") {
		h.WithKeepalive(raw.Keepalive)
	}
	if meta.IsDefined("header", "segment_mru") {
		h.WithSegmentMRU(raw.SegmentMRU)
	}
	if meta.IsDefined("header", "transfer_mru") {
		h.WithTransferMRU(raw.TransferMRU)
	}
	if meta.IsDefined("header", "endpoint_id") {
		if _, err := h.SetEndpointID(raw.EndpointID); err != nil {
			return fmt.Errorf("header.endpoint_id: %w", err)
		}
	}
	return nil
}

// FileConfigFrom maps a runtime config back onto its file representation.
func FileConfigFrom(cfg contactd.Config) FileConfig {
	eid, _ := cfg.Local.EndpointID()
	return FileConfig{
		NodeID:      cfg.NodeID,
		Addr:        cfg.ListenAddr,
		AdminAddr:   cfg.AdminListenAddr,
		ReadTimeout: cfg.ReadTimeout.String(),
		Header: HeaderFile{
			CanTLS:      cfg.Local.Flags().Has(contact.FlagCanTLS),
			Keepalive:   cfg.Local.Keepalive(),
			SegmentMRU:  cfg.Local.SegmentMRU(),
			TransferMRU: cfg.Local.TransferMRU(),
			EndpointID:  eid,
		},
	}
}

package relay

import (
	"encoding/json"
	"net/http"

	"aether.dev/pkg/app/config"
	"aether.dev/pkg/utils/chk"
	"aether.dev/pkg/utils/log"
)

// Info is the relay's self-description document, returned for a root-path
// request carrying "Accept: application/nostr+json" — the teacher's
// NIP-11 document, reshaped around this data model's own kind classes and
// policy knobs instead of a NIP support list.
type Info struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Software       string   `json:"software"`
	Version        string   `json:"version"`
	Gateways       []string `json:"gateways"`
	KindClasses    []string `json:"kind_classes"`
	AuthRequired   bool     `json:"auth_required"`
	PublicReadable bool     `json:"public_readable"`
	MinPow         int      `json:"min_pow_difficulty"`
	MaxSkewSeconds int      `json:"max_skew_seconds"`
}

// ServeInfo writes the relay's self-description document as JSON.
func (s *Server) ServeInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	info := s.Info()
	if err := json.NewEncoder(w).Encode(info); chk.E(err) {
		log.D.F("relay: failed to encode self-description document: %v", err)
	}
}

// Info builds the self-description document from the server's current
// configuration.
func (s *Server) Info() *Info {
	var gateways []string
	if s.C.EnableNative {
		gateways = append(gateways, "native")
	}
	if s.C.EnableNIP01 {
		gateways = append(gateways, "nip01")
	}
	if s.C.EnableHTTP {
		gateways = append(gateways, "http")
	}
	return &Info{
		Name:        s.C.AppName,
		Description: "an Aether relay-core instance",
		Software:    "aether.dev",
		Version:     config.AppVersion,
		Gateways:    gateways,
		KindClasses: []string{
			"immutable (0-999)",
			"replaceable (10000-19999)",
			"ephemeral (20000-29999)",
			"parameterized-replaceable (30000-39999)",
		},
		AuthRequired:   s.C.AuthRequired,
		PublicReadable: s.C.PublicReadable,
		MinPow:         s.C.MinPowDifficulty,
		MaxSkewSeconds: s.C.MaxSkewSeconds,
	}
}

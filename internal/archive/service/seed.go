package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/open-science-archive/osa-go/internal/archive/domain"
	"github.com/open-science-archive/osa-go/internal/archive/store"
	"github.com/open-science-archive/osa-go/pkg/idx"
	"github.com/open-science-archive/osa-go/pkg/srn"
)

// DefaultDevUser is the handle /auth/login assumes when no user is given.
const DefaultDevUser = "josiah"

// DevUser is one of the fixed identities the mock's login flow accepts via
// its user query parameter.
type DevUser struct {
	Handle      string
	Provider    string
	ExternalID  string
	DisplayName string
	Roles       []string
}

// DevUsers are the seeded login identities. Josiah Carberry keeps his
// traditional fictional ORCID iD; the others use obviously-fake identifiers.
var DevUsers = []DevUser{
	{
		Handle:      "josiah",
		Provider:    "orcid",
		ExternalID:  "0000-0002-1825-0097",
		DisplayName: "Josiah Carberry",
		Roles:       []string{domain.RoleDepositor},
	},
	{
		Handle:      "curator",
		Provider:    "orcid",
		ExternalID:  "0000-0000-0000-0002",
		DisplayName: "Dev Curator",
		Roles:       []string{domain.RoleCurator},
	},
	{
		Handle:      "admin",
		Provider:    "github",
		ExternalID:  "osa-admin",
		DisplayName: "Dev Admin",
		Roles:       []string{domain.RoleAdmin},
	},
}

// FindDevUser looks a login handle up in the dev user table.
func FindDevUser(handle string) (DevUser, bool) {
	for _, u := range DevUsers {
		if u.Handle == handle {
			return u, true
		}
	}
	return DevUser{}, false
}

func devUserHandles() string {
	handles := make([]string, len(DevUsers))
	for i, u := range DevUsers {
		handles[i] = u.Handle
	}
	return strings.Join(handles, ", ")
}

// SeedService populates an empty store with the dev fixtures: the login
// users, two conventions, and one already-published deposition with its
// record so search has something to find on first boot.
type SeedService struct {
	Store  store.Store
	NodeID string
	Logger *slog.Logger
}

// Run seeds the store unless users already exist. Safe to call on every
// startup.
func (s *SeedService) Run(ctx context.Context) error {
	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		s.Logger.Info("seed skipped, store already populated")
		return nil
	}

	now := time.Now().UTC()

	var josiahID string
	users := make([]domain.User, 0, len(DevUsers))
	for _, dev := range DevUsers {
		u := domain.User{
			ID:          idx.New().String(),
			Provider:    dev.Provider,
			ExternalID:  dev.ExternalID,
			DisplayName: dev.DisplayName,
			Roles:       dev.Roles,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if dev.Handle == DefaultDevUser {
			josiahID = u.ID
		}
		users = append(users, u)
	}

	crystallography := domain.Convention{
		SRN:         srn.New(s.NodeID, srn.TypeConvention, "crystallography").WithVersion("1.0.0"),
		Title:       "X-ray Crystallography Deposits",
		Description: "Crystal structures determined by single-crystal or powder diffraction",
		SchemaSRN:   srn.New(s.NodeID, srn.TypeSchema, "crystallography-metadata").WithVersion("1.0.0"),
		FileRequirements: domain.FileRequirements{
			AcceptedTypes: []string{".cif", ".csv", ".txt"},
			MaxFileSize:   50 << 20,
			MinCount:      1,
			MaxCount:      10,
		},
		Hooks: []domain.HookDefinition{{
			Image:  "ghcr.io/osa/cif-validate",
			Digest: "sha256:0c6de2b3a8670aff4517e4ce6fa2bf99b6b9c8f11c4b10c6de4a12ab74ff1d9e",
			Runner: "oci",
			Config: map[string]any{"strict": false},
		}},
		CreatedAt: now,
	}
	tabular := domain.Convention{
		SRN:         srn.New(s.NodeID, srn.TypeConvention, "tabular-data").WithVersion("1.0.0"),
		Title:       "Tabular Data Deposits",
		Description: "General-purpose tabular datasets with column descriptions",
		SchemaSRN:   srn.New(s.NodeID, srn.TypeSchema, "tabular-metadata").WithVersion("1.0.0"),
		FileRequirements: domain.FileRequirements{
			AcceptedTypes: []string{".csv", ".tsv"},
			MaxFileSize:   10 << 20,
			MinCount:      1,
			MaxCount:      20,
		},
		CreatedAt: now,
	}

	published, record, sample := s.publishedExample(crystallography, josiahID, now)

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		for _, u := range users {
			if err := tx.Users().CreateUser(ctx, u); err != nil {
				return err
			}
		}
		for _, conv := range []domain.Convention{crystallography, tabular} {
			if err := tx.Conventions().CreateConvention(ctx, conv); err != nil {
				return err
			}
		}
		if err := tx.Depositions().CreateDeposition(ctx, published); err != nil {
			return err
		}
		if err := tx.Depositions().PutFile(ctx, published.SRN.String(), published.Files[0], sample); err != nil {
			return err
		}
		return tx.Records().CreateRecord(ctx, record)
	})
	if err != nil {
		return err
	}

	s.Logger.Info("seeded dev fixtures",
		slog.Int("users", len(users)),
		slog.Int("conventions", 2),
		slog.String("record", record.SRN.String()),
	)
	return nil
}

// publishedExample walks one deposition through the full lifecycle so the
// seeded state is reachable through the domain rules, not hand-assembled.
func (s *SeedService) publishedExample(
	conv domain.Convention,
	ownerID string,
	now time.Time,
) (domain.Deposition, domain.Record, []byte) {
	sample := []byte("data_zif8\n_cell_length_a 16.9910\n_cell_length_b 16.9910\n_cell_length_c 16.9910\n")

	dep := domain.Deposition{
		SRN:           srn.New(s.NodeID, srn.TypeDeposition, idx.New().Lower()),
		ConventionSRN: conv.SRN,
		OwnerID:       ownerID,
		Status:        domain.StatusDraft,
		Metadata:      map[string]any{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	metadata := map[string]any{
		"title":            "ZIF-8 crystal structure at ambient conditions",
		"description":      "Single-crystal X-ray structure of zeolitic imidazolate framework ZIF-8",
		"creators":         "Josiah Carberry",
		"keywords":         "MOF; zeolitic imidazolate framework; porous material",
		"license":          "CC-BY-4.0",
		"publication_date": "2026-01-15",
	}
	_ = dep.UpdateMetadata(metadata, now)
	_ = dep.AddFile(domain.DepositionFile{
		Name:        "zif8.cif",
		Size:        int64(len(sample)),
		Checksum:    checksumFor(sample),
		ContentType: contentTypeFor("zif8.cif"),
		UploadedAt:  now,
	}, now)
	_ = dep.Submit(now)

	recordSRN := srn.New(s.NodeID, srn.TypeRecord, dep.SRN.Local).WithVersion("1")
	_ = dep.Publish(recordSRN, now)

	record := domain.Record{
		SRN:           recordSRN,
		DepositionSRN: dep.SRN,
		Metadata:      metadata,
		PublishedAt:   now,
	}
	return dep, record, sample
}

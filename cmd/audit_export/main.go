// Command audit_export writes the audit log as CSV to a file or stdout, or
// archives it to R2 with -archive.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"tourneypay/internal/config"
	"tourneypay/internal/repositories"
	"tourneypay/internal/services/audit"
	"tourneypay/internal/storage"
)

func main() {
	var (
		actions    = flag.String("actions", "", "comma separated actions to include")
		entityType = flag.String("entity-type", "", "entity type to include")
		entityID   = flag.Uint("entity-id", 0, "entity id to include")
		actorID    = flag.Uint("actor-id", 0, "actor id to include")
		from       = flag.String("from", "", "inclusive start date (YYYY-MM-DD)")
		to         = flag.String("to", "", "exclusive end date (YYYY-MM-DD)")
		out        = flag.String("out", "", "output file, stdout when empty")
		archive    = flag.Bool("archive", false, "upload the export to R2 instead of writing it locally")
	)
	flag.Parse()

	config.LoadEnv()

	filter := repositories.AuditFilter{
		EntityType: *entityType,
		EntityID:   *entityID,
		ActorID:    *actorID,
		From:       mustDate("from", *from),
		To:         mustDate("to", *to),
	}
	for _, a := range strings.Split(*actions, ",") {
		if a = strings.TrimSpace(strings.ToUpper(a)); a != "" {
			filter.Actions = append(filter.Actions, a)
		}
	}

	if err := repositories.InitDB(); err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	defer repositories.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store := repositories.NewStore(repositories.DB)

	if *archive {
		uploader, err := storage.NewR2Uploader(ctx, storage.R2ConfigFromEnv())
		if err != nil {
			log.Fatalf("❌ Failed to configure R2: %v", err)
		}
		result, err := audit.NewService(store, uploader).Archive(ctx, audit.Actor{IP: "cli"}, filter)
		if err != nil {
			log.Fatalf("❌ Archive failed: %v", err)
		}
		log.Printf("✅ Archived %d audit entries to %s", result.Rows, result.Location)
		return
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			log.Fatalf("❌ Failed to create %s: %v", *out, err)
		}
		defer f.Close()
		w = f
	}

	rows, err := audit.NewService(store, nil).Export(ctx, filter, w)
	if err != nil {
		log.Fatalf("❌ Export failed: %v", err)
	}
	log.Printf("✅ Exported %d audit entries", rows)
}

func mustDate(name, raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		log.Fatalf("❌ Invalid -%s %q: %v", name, raw, err)
	}
	return t
}

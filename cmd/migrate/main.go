// Command migrate manages the snapshot archive schema.
//
// The target database comes from PODIUM_POSTGRES_DSN, the same variable
// the server reads. Migration files live in ./migrations unless
// PODIUM_MIGRATIONS_DIR points elsewhere.
package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	dsn := strings.TrimSpace(os.Getenv("PODIUM_POSTGRES_DSN"))
	if dsn == "" {
		log.Fatal("PODIUM_POSTGRES_DSN is required")
	}

	dir, err := resolveMigrationsDir()
	if err != nil {
		log.Fatalf("resolve migrations dir: %v", err)
	}

	sourceURL := "file://" + filepath.ToSlash(dir)
	m, err := migrate.New(sourceURL, dsn)
	if err != nil {
		log.Fatalf("create migrator: %v", err)
	}
	defer closeMigrator(m)

	switch strings.ToLower(strings.TrimSpace(os.Args[1])) {
	case "up":
		handleMigrationErr(m.Up())
		log.Printf("migrations applied (source=%s)", sourceURL)
	case "down":
		steps, parseErr := parseSteps(os.Args[2:])
		if parseErr != nil {
			log.Fatal(parseErr)
		}
		handleMigrationErr(m.Steps(-steps))
		log.Printf("rolled back %d migration(s)", steps)
	case "version":
		version, dirty, versionErr := m.Version()
		if errors.Is(versionErr, migrate.ErrNilVersion) {
			fmt.Println("version: none")
			return
		}
		if versionErr != nil {
			log.Fatalf("read version: %v", versionErr)
		}
		fmt.Printf("version: %d\ndirty: %t\n", version, dirty)
	case "force":
		if len(os.Args) < 3 {
			log.Fatal("force requires a version argument")
		}
		version, parseErr := strconv.Atoi(strings.TrimSpace(os.Args[2]))
		if parseErr != nil || version < 0 {
			log.Fatalf("invalid version %q", os.Args[2])
		}
		if err := m.Force(version); err != nil {
			log.Fatalf("force version %d: %v", version, err)
		}
		log.Printf("forced version to %d", version)
	case "goto":
		if len(os.Args) < 3 {
			log.Fatal("goto requires a target version argument")
		}
		target, parseErr := strconv.ParseUint(strings.TrimSpace(os.Args[2]), 10, 64)
		if parseErr != nil {
			log.Fatalf("invalid target version %q", os.Args[2])
		}
		handleMigrationErr(m.Migrate(uint(target)))
		log.Printf("migrated to version %d", target)
	default:
		printUsage()
		os.Exit(2)
	}
}

func parseSteps(args []string) (int, error) {
	if len(args) == 0 {
		return 1, nil
	}
	steps, err := strconv.Atoi(strings.TrimSpace(args[0]))
	if err != nil {
		return 0, fmt.Errorf("invalid down steps %q: %w", args[0], err)
	}
	if steps <= 0 {
		return 0, errors.New("down steps must be > 0")
	}
	return steps, nil
}

func handleMigrationErr(err error) {
	if err == nil {
		return
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Printf("no migration changes")
		return
	}
	log.Fatal(err)
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if srcErr != nil {
		log.Printf("close migration source: %v", srcErr)
	}
	if dbErr != nil {
		log.Printf("close migration db: %v", dbErr)
	}
}

func resolveMigrationsDir() (string, error) {
	candidates := []string{
		strings.TrimSpace(os.Getenv("PODIUM_MIGRATIONS_DIR")),
		"./migrations",
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		return abs, nil
	}
	return "", errors.New("migration directory not found (checked PODIUM_MIGRATIONS_DIR, ./migrations)")
}

func printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <up|down|version|force|goto> [args]\n", prog)
	fmt.Fprintf(os.Stderr, "examples:\n")
	fmt.Fprintf(os.Stderr, "  %s up\n", prog)
	fmt.Fprintf(os.Stderr, "  %s down 1\n", prog)
	fmt.Fprintf(os.Stderr, "  %s goto 1\n", prog)
}

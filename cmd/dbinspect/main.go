package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/leaflog/leaflog-sync/internal/domain"
)

func main() {
	dbPath := os.Getenv("DATA_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Leaflog/data")
	}

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Database Inspection ===")
	fmt.Println()

	bookCount := 0
	migratedBooks := 0
	legacyBooks := 0
	noteCount := 0
	notesWithoutDate := 0
	queueCount := 0
	cacheEntries := 0

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())

			switch {
			case strings.HasPrefix(key, "doc:book:"):
				err := item.Value(func(val []byte) error {
					var book domain.Book
					if err := json.Unmarshal(val, &book); err != nil {
						return err
					}
					bookCount++
					if book.Migrated {
						migratedBooks++
					} else {
						legacyBooks++
						if legacyBooks <= 3 {
							fmt.Printf("Book (LEGACY): %s\n", book.Title)
							fmt.Printf("  ID: %s\n", book.ID)
							fmt.Printf("  List: %s\n", book.List)
							fmt.Printf("  Started set: %v, Finished set: %v\n",
								book.Started != nil, book.Finished != nil)
							fmt.Println()
						}
					}
					return nil
				})
				if err != nil {
					log.Printf("Error reading book %s: %v", key, err)
				}

			case strings.HasPrefix(key, "doc:note:"):
				err := item.Value(func(val []byte) error {
					var note domain.Note
					if err := json.Unmarshal(val, &note); err != nil {
						return err
					}
					noteCount++
					if note.Date == nil {
						notesWithoutDate++
					}
					return nil
				})
				if err != nil {
					log.Printf("Error reading note %s: %v", key, err)
				}

			case strings.HasPrefix(key, "queue:"):
				queueCount++
				if queueCount <= 5 {
					fmt.Printf("Queued mutation: %s\n", key)
				}

			case strings.HasPrefix(key, "cache:shelf:"):
				cacheEntries++
			}
		}
		return nil
	})

	if err != nil {
		log.Fatalf("Error iterating database: %v", err)
	}

	fmt.Println("=== Summary ===")
	fmt.Printf("Total books: %d\n", bookCount)
	fmt.Printf("Migrated books: %d\n", migratedBooks)
	fmt.Printf("Legacy books: %d\n", legacyBooks)
	fmt.Printf("Total notes: %d\n", noteCount)
	fmt.Printf("Notes without a date: %d\n", notesWithoutDate)
	fmt.Printf("Pending queue entries: %d\n", queueCount)
	fmt.Printf("Shelf cache entries: %d\n", cacheEntries)
}

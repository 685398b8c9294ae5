package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"studycoach/config"
	"studycoach/db"
	"studycoach/models"
	"studycoach/services"
)

// docs manages the study documents that the coach context search and
// the indexing process read from.
//
// Usage:
//
//	docs list
//	docs show <id>
//	docs add <title> <file>        ("-" reads content from stdin)
//	docs update <id> [-title t] [-file f]
//	docs delete <id>
func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("[ERROR] DB_URL environment variable is required")
	}

	documentRepo, err := db.NewPostgresDocumentRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[ERROR] Failed to initialize document database: %v", err)
	}
	defer documentRepo.Close()

	documentService := services.NewDocumentService(documentRepo)

	switch os.Args[1] {
	case "list":
		err = runList(documentService)
	case "show":
		err = runShow(documentService, os.Args[2:])
	case "add":
		err = runAdd(documentService, os.Args[2:])
	case "update":
		err = runUpdate(documentService, os.Args[2:])
	case "delete":
		err = runDelete(documentService, os.Args[2:])
	default:
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		log.Fatalf("[ERROR] %v", err)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: docs <command> [arguments]

Commands:
  list                              list all documents
  show <id>                         print a document with its content
  add <title> <file>                create a document from a file ("-" for stdin)
  update <id> [-title t] [-file f]  update the title and/or content
  delete <id>                       delete a document`)
}

func runList(documentService *services.DocumentService) error {
	documents, err := documentService.GetAllDocuments()
	if err != nil {
		return err
	}

	if len(documents) == 0 {
		fmt.Println("No documents stored.")
		return nil
	}

	for _, doc := range documents {
		fmt.Printf("%d\t%s\t(%d chars, created %s)\n",
			doc.ID, doc.Title, len(doc.Content), doc.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

func runShow(documentService *services.DocumentService, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	doc, err := documentService.GetDocumentByID(id)
	if err != nil {
		return err
	}

	fmt.Printf("Document %d: %s\n\n%s\n", doc.ID, doc.Title, doc.Content)
	return nil
}

func runAdd(documentService *services.DocumentService, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: docs add <title> <file>")
	}

	content, err := readContent(args[1])
	if err != nil {
		return err
	}

	doc, err := documentService.CreateDocument(&models.CreateDocumentRequest{
		Title:   args[0],
		Content: content,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Created document %d: %s\n", doc.ID, doc.Title)
	return nil
}

func runUpdate(documentService *services.DocumentService, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: docs update <id> [-title t] [-file f]")
	}

	id, err := parseID(args[:1])
	if err != nil {
		return err
	}

	flags := flag.NewFlagSet("update", flag.ExitOnError)
	title := flags.String("title", "", "new document title")
	file := flags.String("file", "", "file with the new content (\"-\" for stdin)")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}

	req := &models.UpdateDocumentRequest{}
	if *title != "" {
		req.Title = title
	}
	if *file != "" {
		content, err := readContent(*file)
		if err != nil {
			return err
		}
		req.Content = &content
	}

	doc, err := documentService.UpdateDocument(id, req)
	if err != nil {
		return err
	}

	fmt.Printf("Updated document %d: %s\n", doc.ID, doc.Title)
	return nil
}

func runDelete(documentService *services.DocumentService, args []string) error {
	id, err := parseID(args)
	if err != nil {
		return err
	}

	if err := documentService.DeleteDocument(id); err != nil {
		return err
	}

	fmt.Printf("Deleted document %d\n", id)
	return nil
}

func parseID(args []string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("document ID is required")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid document ID %q", args[0])
	}
	return id, nil
}

func readContent(path string) (string, error) {
	if path == "-" {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read content from stdin: %w", err)
		}
		return string(content), nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read content file: %w", err)
	}
	return string(content), nil
}

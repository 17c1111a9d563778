package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"driftp/pkg/conn"
	"driftp/pkg/s3"
	"driftp/pkg/storage"
	"driftp/pkg/trust"
	"driftp/pkg/tui"
	"driftp/pkg/vfs"
)

func main() {
	port := flag.String("p", "", "remote port (default 22)")
	username := flag.String("u", "", "remote username")
	restore := flag.Bool("restore", false, "restore the data directory from the newest S3 backup and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-p port] [-u user] destination\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "       %s -restore\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if !*restore && flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	destination := flag.Arg(0)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
		os.Exit(1)
	}

	dataDir := filepath.Join(homeDir, ".driftp")
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating data directory: %v\n", err)
		os.Exit(1)
	}

	// The TUI owns the terminal, so all logging goes to a file
	logFile, err := os.OpenFile(
		filepath.Join(dataDir, "debug.log"),
		os.O_CREATE|os.O_WRONLY|os.O_APPEND,
		0600,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	log.SetOutput(logFile)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	slog.SetDefault(slog.New(slog.NewTextHandler(logFile, nil)))

	settings, err := storage.NewSettingsStore(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading settings: %v\n", err)
		os.Exit(1)
	}

	if *restore {
		if err := runRestore(dataDir, settings); err != nil {
			slog.Error("Restore failed", "error", err)
			fmt.Fprintf(os.Stderr, "Restore failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Data directory restored.")
		return
	}

	if err := run(destination, *port, *username, dataDir, settings); err != nil {
		slog.Error("Fatal", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(destination, port, username, dataDir string, settings *storage.SettingsStore) error {
	cfg := settings.Get()

	if port == "" && cfg.DefaultPort != 0 && cfg.DefaultPort != 22 {
		port = fmt.Sprintf("%d", cfg.DefaultPort)
	}
	if username == "" {
		username = cfg.DefaultUsername
	}
	if username == "" {
		if u, err := user.Current(); err == nil {
			username = u.Username
		}
	}
	if username == "" {
		return errors.New("no username given, use -u")
	}

	store, err := trust.NewStore(filepath.Join(dataDir, "known_hosts"))
	if err != nil {
		return err
	}

	// Trust and password prompts happen on the plain terminal, before
	// the TUI takes over the screen.
	session, err := conn.Establish(destination, port, username, store, promptTrust, askPassword)
	if err != nil {
		return err
	}
	defer session.Close()

	sftpClient, err := session.SFTP()
	if err != nil {
		return err
	}
	defer sftpClient.Close()

	local := vfs.NewLocal()
	remote := vfs.NewSFTP(sftpClient)

	localDir, err := os.Getwd()
	if err != nil {
		localDir = "/"
	}
	remoteDir := remote.WorkingDirectory()

	model, err := tui.New(local, remote, localDir, remoteDir, settings)
	if err != nil {
		return err
	}

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run program: %w", err)
	}

	if cfg.AutoBackup && cfg.S3Host != "" {
		if err := autoBackup(dataDir, settings.Get()); err != nil {
			log.Printf("[ERROR] Auto-backup failed: %v", err)
			fmt.Fprintf(os.Stderr, "Auto-backup failed: %v\n", err)
		}
	}

	return nil
}

// runRestore pulls the newest backup from the configured S3 endpoint
// and writes the trust store and settings back into the data directory.
func runRestore(dataDir string, settings *storage.SettingsStore) error {
	cfg := settings.Get()
	if cfg.S3Host == "" {
		return errors.New("no S3 endpoint configured in settings")
	}

	password := cfg.BackupPassword
	if password == "" {
		var err error
		password, err = askPassword("Backup password: ")
		if err != nil {
			return err
		}
	}

	client, err := s3.NewClient(cfg.S3Host, cfg.S3AccessKey, cfg.S3SecretKey)
	if err != nil {
		return err
	}
	log.Printf("[INFO] Restoring backup from %s", cfg.S3Host)
	return client.Restore(dataDir, password)
}

// autoBackup pushes the data directory to the configured S3 endpoint.
func autoBackup(dataDir string, cfg storage.Settings) error {
	if cfg.BackupPassword == "" {
		return errors.New("no backup password configured")
	}
	client, err := s3.NewClient(cfg.S3Host, cfg.S3AccessKey, cfg.S3SecretKey)
	if err != nil {
		return err
	}
	log.Printf("[INFO] Uploading backup to %s", cfg.S3Host)
	return client.Backup(dataDir, cfg.BackupPassword)
}

// promptTrust asks on stdin whether to accept a first-contact host key.
func promptTrust(host, fingerprint string) bool {
	fmt.Printf("The authenticity of host '%s' can't be established.\n", host)
	fmt.Printf("Key fingerprint is %s.\n", fingerprint)
	fmt.Print("Are you sure you want to continue connecting (yes/no)? ")

	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}

// askPassword reads a password from the terminal without echo.
func askPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

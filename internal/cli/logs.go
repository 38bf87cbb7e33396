package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/guardrail-oss/guardrail/internal/config"
	"github.com/spf13/cobra"
)

var (
	logsFollow bool
	logsLines  int
	logsFilter string
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View guardrail logs",
	Long: `View the log file configured under logging.file.

Examples:
  guardrail logs                   # View recent log lines
  guardrail logs --filter recovery # Filter by substring
  guardrail logs --follow          # Follow log output`,
	RunE: runLogs,
}

func init() {
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "follow log output")
	logsCmd.Flags().IntVarP(&logsLines, "lines", "n", 50, "number of lines to show")
	logsCmd.Flags().StringVar(&logsFilter, "filter", "", "only lines containing this substring")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.Logging.File == "" {
		fmt.Println("No log file configured. Set logging.file in guardrail.yaml.")
		return nil
	}

	if _, err := os.Stat(cfg.Logging.File); os.IsNotExist(err) {
		fmt.Println("No logs found.")
		return nil
	}

	if logsFollow {
		return followLog(cfg.Logging.File)
	}
	return showLog(cfg.Logging.File)
}

func showLog(path string) error {
	content, err := readLastLines(path, logsLines)
	if err != nil {
		return fmt.Errorf("failed to read log: %w", err)
	}
	for _, line := range strings.Split(content, "\n") {
		if logsFilter != "" && !strings.Contains(line, logsFilter) {
			continue
		}
		fmt.Println(line)
	}
	return nil
}

func followLog(path string) error {
	fmt.Println("Following logs... (Ctrl+C to stop)")

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	// Seek to end
	file.Seek(0, 2)

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if logsFilter != "" && !strings.Contains(line, logsFilter) {
			continue
		}
		fmt.Print(line)
	}
}

func readLastLines(path string, n int) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}

	return strings.Join(lines, "\n"), scanner.Err()
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/latihan/internal/bank"
)

// loadBank opens the --bank file. A missing file yields an empty session.
func loadBank(cmd *cobra.Command) (*bank.Session, string, error) {
	path, _ := cmd.Flags().GetString("bank")
	s, err := bank.LoadFile(path, bank.WithLogger(app.log))
	if err != nil {
		return nil, "", fmt.Errorf("load bank: %w", err)
	}
	app.log.Debug("bank loaded",
		zap.String("path", path),
		zap.Int("records", s.Snapshot().Len()))
	return s, path, nil
}

func saveBank(s *bank.Session, path string) error {
	if err := s.SaveFile(path); err != nil {
		return fmt.Errorf("save bank: %w", err)
	}
	app.log.Debug("bank saved",
		zap.String("path", path),
		zap.Int("version", s.Snapshot().Version()))
	return nil
}

package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spigell/smart-apply/internal/filtering"
	"github.com/spigell/smart-apply/internal/report"
	"go.uber.org/zap"
)

const (
	PromptShowOutcome         = "Show result"
	PromptShowAll             = "Show all normalized jobs"
	PromptReportByCompany     = "Report by company"
	PromptExportCSV           = "Export result to CSV"
	PromptExportXLSX          = "Export result to XLSX"
	PromptDumpToFile          = "Dump result to JSON file"
	PromptAppendToExcludeFile = "Append result to exclude file"
	PromptExit                = "Exit"
)

var errExit = errors.New("exit requested")

// presenter shows a finished run and handles the follow-up actions.
type presenter struct {
	out         io.Writer
	logger      *zap.Logger
	result      *runResult
	excludeFile string
	// ask reads a file name; replaced in tests.
	ask func(label, def string) (string, error)
}

func newPresenter(out io.Writer, log *zap.Logger, result *runResult, excludeFile string) *presenter {
	return &presenter{
		out:         out,
		logger:      log,
		result:      result,
		excludeFile: excludeFile,
		ask:         askFileName,
	}
}

func (p *presenter) items() []string {
	items := []string{PromptShowOutcome, PromptShowAll, PromptReportByCompany, PromptExportCSV, PromptExportXLSX, PromptDumpToFile}
	if p.excludeFile != "" {
		items = append(items, PromptAppendToExcludeFile)
	}
	return append(items, PromptExit)
}

// interactive loops on the action menu until the user exits.
func (p *presenter) interactive() error {
	prompt := promptui.Select{
		Label: p.result.Outcome.Message() + ". What next?",
		Items: p.items(),
		Size:  len(p.items()),
	}

	for {
		_, action, err := prompt.Run()
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				return nil
			}
			return err
		}

		if err := p.handleAction(action); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			return err
		}
	}
}

func (p *presenter) handleAction(action string) error {
	rows := p.result.Outcome.Rows

	switch action {
	case PromptShowOutcome:
		return p.show(rows)
	case PromptShowAll:
		return p.show(report.FromJobs(fallbackRecords(p.result.Records, p.result.Postings)))
	case PromptReportByCompany:
		for _, group := range report.ByCompany(rows) {
			fmt.Fprintf(p.out, "\n%s (%d)\n", group.Company, len(group.Rows))
			if err := report.WriteTable(p.out, group.Rows); err != nil {
				return err
			}
		}
		return nil
	case PromptExportCSV:
		return p.export(rows, "smart-apply.csv")
	case PromptExportXLSX:
		return p.export(rows, "smart-apply.xlsx")
	case PromptDumpToFile:
		filename, err := report.DumpToTmpFile(rows)
		if err != nil {
			return fmt.Errorf("dump results to file: %w", err)
		}
		p.logger.Info("dumping result to file", zap.String("filename", filename))
		return nil
	case PromptAppendToExcludeFile:
		if err := filtering.AppendToFile(p.excludeFile, report.Jobs(rows), time.Now()); err != nil {
			return fmt.Errorf("append to exclude file: %w", err)
		}
		p.logger.Info("appended to exclude file", zap.String("filename", p.excludeFile), zap.Int("count", len(rows)))
		return nil
	case PromptExit:
		p.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func (p *presenter) show(rows []report.Row) error {
	if len(rows) == 0 {
		fmt.Fprintln(p.out, p.result.Outcome.Message())
		return nil
	}
	return report.WriteTable(p.out, rows)
}

func (p *presenter) export(rows []report.Row, def string) error {
	path, err := p.ask("File name", def)
	if err != nil {
		return err
	}
	if err := report.Export(path, rows); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	p.logger.Info("exported result", zap.String("filename", path), zap.Int("count", len(rows)))
	return nil
}

func askFileName(label, def string) (string, error) {
	prompt := promptui.Prompt{
		Label:     label,
		Default:   def,
		AllowEdit: true,
	}
	return prompt.Run()
}

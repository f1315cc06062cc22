package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/FranksOps/leadscout/internal/model"
)

// Sources recorded in the companies-seen file.
const (
	SourceAgent  = "chat_agent"
	SourceUpload = "upload"
)

var companyHeader = []string{"name", "city", "country", "industry", "source", "date_added"}

// AppendCompanies appends companies to the companies-seen CSV at path,
// writing the header when the file is new or empty. The file is never truncated.
func AppendCompanies(path string, companies []model.Company, source string, now time.Time) error {
	if len(companies) == 0 {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("export: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("export: stat %s: %w", path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(companyHeader); err != nil {
			return fmt.Errorf("export: write %s: %w", path, err)
		}
	}
	added := now.Format(processingDateFmt)
	for _, c := range companies {
		if err := w.Write([]string{c.Name, c.City, c.Country, c.Industry, source, added}); err != nil {
			return fmt.Errorf("export: write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/laurierboom/tournament-engine/models"
	"github.com/laurierboom/tournament-engine/storage"
)

// BuildStandingsReport renders the final standings as a plain-text table,
// suitable for publishing or printing out at the club.
func BuildStandingsReport(tournament *models.Tournament, table []models.Standing, playerByID map[int]*models.Player) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", tournament.Name)
	fmt.Fprintf(&b, "%s %s", tournament.Format, tournament.TimeControl)
	if tournament.Location != "" {
		fmt.Fprintf(&b, " - %s", tournament.Location)
	}
	fmt.Fprintf(&b, "\n%s\n\n", tournament.Date.Format("2 January 2006"))

	fmt.Fprintf(&b, "%-5s %-30s %s\n", "Rank", "Player", "Score")
	for _, s := range table {
		name := fmt.Sprintf("player %d", s.PlayerID)
		if p, ok := playerByID[s.PlayerID]; ok {
			name = p.FullName()
		}
		fmt.Fprintf(&b, "%-5d %-30s %.1f\n", s.Rank, name, s.Score)
	}
	return b.String()
}

// ReportPublisher uploads finished-tournament reports to the object store.
type ReportPublisher struct {
	uploader storage.FileUploader
}

func NewReportPublisher(uploader storage.FileUploader) *ReportPublisher {
	return &ReportPublisher{uploader: uploader}
}

func (p *ReportPublisher) Publish(ctx context.Context, tournament *models.Tournament, report string) (string, error) {
	key := fmt.Sprintf("reports/tournament-%d-standings.txt", tournament.ID)
	result, err := p.uploader.Upload(ctx, key, "text/plain; charset=utf-8", strings.NewReader(report))
	if err != nil {
		return "", fmt.Errorf("failed to upload standings report for tournament %d: %w", tournament.ID, err)
	}
	return result.Location, nil
}

package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/reeladmin/internal/formatter"
	"github.com/desertthunder/reeladmin/internal/listing"
	"github.com/desertthunder/reeladmin/internal/models"
	"github.com/desertthunder/reeladmin/internal/shared"
)

// MoviesStats prints the catalog overview counters.
func (r *Runner) MoviesStats(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	if err := r.connect(); err != nil {
		return err
	}

	movies, err := r.movies.List(ctx)
	if err != nil {
		return err
	}

	stats := models.SummarizeMovies(movies)
	return formatter.Write(r.output, format, formatter.Stats(stats), stats)
}

// MoviesAdd creates a movie from flags.
func (r *Runner) MoviesAdd(ctx context.Context, cmd *cli.Command) error {
	var form models.MovieForm
	if err := fillMovieForm(&form, cmd); err != nil {
		return err
	}
	if err := r.connect(); err != nil {
		return err
	}

	movie, err := r.movies.Create(ctx, form)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Added %s as %s\n", movie.Title, movie.MovieID)
}

// MoviesEdit updates a movie. Flags that are not set keep the current value; images are only replaced when given.
func (r *Runner) MoviesEdit(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.connect(); err != nil {
		return err
	}

	current, err := r.findMovie(ctx, id)
	if err != nil {
		return err
	}

	form := models.FormFromMovie(current)
	if err := fillMovieForm(&form, cmd); err != nil {
		return err
	}

	movie, err := r.movies.Update(ctx, id, form)
	if err != nil {
		return err
	}
	return r.writePlain("✓ Updated %s\n", movie.Title)
}

// MoviesTrailer opens the trailer link in the default browser.
func (r *Runner) MoviesTrailer(ctx context.Context, cmd *cli.Command) error {
	id, err := requireArg(cmd, "id")
	if err != nil {
		return err
	}
	if err := r.connect(); err != nil {
		return err
	}

	movie, err := r.findMovie(ctx, id)
	if err != nil {
		return err
	}
	if movie.TrailerLink == "" {
		return fmt.Errorf("%w: %s has no trailer", shared.ErrNotFound, movie.Title)
	}

	r.writePlain("→ Opening trailer for %s...\n", movie.Title)
	if err := shared.OpenBrowser(movie.TrailerLink); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlain("Please open this URL in your browser:\n%s\n", movie.TrailerLink)
	}
	return nil
}

// findMovie loads the catalog through a controller and looks up id.
func (r *Runner) findMovie(ctx context.Context, id string) (models.Movie, error) {
	ctrl := listing.NewController(listing.Movies, r.movies.List, r.logger)
	if err := ctrl.Load(ctx); err != nil {
		return models.Movie{}, err
	}
	movie, ok := ctrl.Find(id)
	if !ok {
		return models.Movie{}, fmt.Errorf("%w: movie %s", shared.ErrNotFound, id)
	}
	return movie, nil
}

// fillMovieForm copies the flags that were set onto form.
func fillMovieForm(form *models.MovieForm, cmd *cli.Command) error {
	if cmd.IsSet("title") {
		form.Title = cmd.String("title")
	}
	if cmd.IsSet("year") {
		form.Year = cmd.Int("year")
	}
	if cmd.IsSet("genres") {
		form.Genres = models.ParseGenres(cmd.String("genres"))
	}
	if cmd.IsSet("description") {
		form.Description = cmd.String("description")
	}
	if cmd.IsSet("duration") {
		form.Duration = cmd.String("duration")
	}
	if cmd.IsSet("price") {
		form.Price = cmd.Float("price")
	}
	if cmd.IsSet("video") {
		form.VideoLink = cmd.String("video")
	}
	if cmd.IsSet("trailer") {
		form.TrailerLink = cmd.String("trailer")
	}
	if cmd.IsSet("upcoming") {
		form.IsUpcoming = cmd.Bool("upcoming")
	}

	var err error
	if form.PortraitImage, err = attachment(cmd.String("portrait"), form.PortraitImage); err != nil {
		return err
	}
	if form.LandscapeImage, err = attachment(cmd.String("landscape"), form.LandscapeImage); err != nil {
		return err
	}
	return nil
}

func attachment(path string, current *models.Attachment) (*models.Attachment, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return current, nil
	}
	data, err := shared.VerifyAndReadFile(path)
	if err != nil {
		return nil, err
	}
	return &models.Attachment{Filename: filepath.Base(path), Data: data}, nil
}

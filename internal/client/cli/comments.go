package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/colsync/internal/comments"
	"github.com/dmitrijs2005/colsync/internal/fragment"
	"github.com/dustin/go-humanize"
)

// getMultiline and getList are swapped in tests like getSimpleText.
var getMultiline = GetMultiline
var getList = GetList

// Add prompts for a new comment on the configured transcription.
func (a *App) Add(ctx context.Context) error {
	env := comments.New()
	env.Sender = a.config.User

	message, err := getMultiline(a.reader, "Enter message", a.out)
	if err != nil {
		return err
	}
	if message == "" {
		return fmt.Errorf("empty message, nothing added")
	}
	env.Message = message

	start, err := a.readTime("Start time (e.g. 1.250 or 0:01:05.300, empty for none)", -1)
	if err != nil {
		return err
	}
	end, err := a.readTime("End time (empty for the start time)", start)
	if err != nil {
		return err
	}
	if start >= 0 && end < start {
		return fmt.Errorf("end %s is before start %s", fragment.FormatTime(end), fragment.FormatTime(start))
	}
	env.StartTime, env.EndTime = start, end

	if env.TierName, err = getSimpleText(a.reader, "Tier (optional)", a.out); err != nil {
		return err
	}

	recipients, err := getList(a.reader, "Recipients", a.out)
	if err != nil {
		return err
	}
	for _, r := range recipients {
		env.AddRecipient(r)
	}

	if err := a.commentService.Add(ctx, env); err != nil {
		return err
	}
	a.printf("Added %s\n", env.MessageID)
	return nil
}

func (a *App) readTime(prompt string, empty int64) (int64, error) {
	s, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return 0, err
	}
	if s == "" {
		return empty, nil
	}
	return fragment.ParseTime(s)
}

// Edit replaces the message of a comment.
func (a *App) Edit(ctx context.Context, args []string) error {
	id, err := oneArg(args, "edit <id>")
	if err != nil {
		return err
	}
	current, err := a.commentService.Get(ctx, id)
	if err != nil {
		return err
	}
	a.printf("Current message:\n%s\n", current.Message)

	message, err := getMultiline(a.reader, "Enter new message", a.out)
	if err != nil {
		return err
	}
	if message == "" || message == current.Message {
		a.printf("Unchanged\n")
		return nil
	}

	if _, err := a.commentService.Edit(ctx, id, func(e *comments.Envelope) error {
		e.Message = message
		return nil
	}); err != nil {
		return err
	}
	a.printf("Saved %s\n", id)
	return nil
}

func (a *App) Delete(ctx context.Context, args []string) error {
	id, err := oneArg(args, "delete <id>")
	if err != nil {
		return err
	}
	if err := a.commentService.Delete(ctx, id); err != nil {
		return err
	}
	a.printf("Deleted %s\n", id)
	return nil
}

func (a *App) Show(ctx context.Context, args []string) error {
	id, err := oneArg(args, "show <id>")
	if err != nil {
		return err
	}
	env, err := a.commentService.Get(ctx, id)
	if err != nil {
		return err
	}

	a.printf("ID:         %s\n", env.MessageID)
	a.printf("Sender:     %s\n", env.Sender)
	if r := env.Recipients(); len(r) > 0 {
		a.printf("Recipients: %s\n", strings.Join(r, ", "))
	}
	a.printf("Range:      %s\n", timeRange(env))
	if env.TierName != "" {
		a.printf("Tier:       %s\n", env.TierName)
	}
	a.printf("Created:    %s\n", humanize.Time(env.CreationDate))
	a.printf("Modified:   %s\n", humanize.Time(env.ModificationDate))
	a.printf("State:      %s\n", state(env))
	if env.MessageURL != "" {
		a.printf("URL:        %s\n", env.MessageURL)
	}
	a.printf("\n%s\n", env.Message)
	return nil
}

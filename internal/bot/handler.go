package bot

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	tele "gopkg.in/telebot.v3"

	"certsentry/internal/certs"
	"certsentry/internal/history"
	"certsentry/internal/report"
)

// MaxFileSize caps incoming documents, matching Telegram's bot API download
// limit of 20 MiB.
const MaxFileSize int64 = 20 * 1024 * 1024

// Reply keyboard buttons.
const (
	btnCertificate = "📜 Certificate"
	btnACCRequest  = "📄 ACC Request"
	btnSettings    = "⚙️ Settings"
	btnHelp        = "❓ Help"
)

// Recorder persists analysis runs for /status.
type Recorder interface {
	Record(userID int64, fileName string, certCount, expiredCount int) error
	Totals() (history.Totals, error)
}

// TaskQueue enqueues video download tasks for the worker.
type TaskQueue interface {
	Enqueue(ctx context.Context, userID int64, videoURL string) (uuid.UUID, error)
}

type Bot struct {
	api     *tele.Bot
	history Recorder
	tasks   TaskQueue
	allowed map[int64]bool
}

type Config struct {
	Token          string
	AllowedUserIDs []int64
}

func New(cfg Config, hist Recorder, tasks TaskQueue) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	api, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	bot := &Bot{api: api, history: hist, tasks: tasks, allowed: allowList(cfg.AllowedUserIDs)}
	bot.register()
	return bot, nil
}

func allowList(ids []int64) map[int64]bool {
	allowed := make(map[int64]bool, len(ids))
	for _, id := range ids {
		allowed[id] = true
	}
	return allowed
}

func (b *Bot) Start() {
	log.Infof("bot started: @%s", b.api.Me.Username)
	b.api.Start()
}

func (b *Bot) Stop() {
	b.api.Stop()
}

func (b *Bot) register() {
	// /my_id stays open so new users can discover their ID for the allow-list.
	b.api.Handle("/my_id", b.handleMyID)

	b.api.Handle("/start", b.restricted(b.handleStart))
	b.api.Handle("/help", b.restricted(b.handleHelp))
	b.api.Handle("/status", b.restricted(b.handleStatus))
	b.api.Handle("/download", b.restricted(b.handleDownload))

	b.api.Handle(tele.OnDocument, b.restricted(b.handleDocument))
	b.api.Handle(tele.OnText, b.restricted(b.handleText))
}

// restricted drops updates from users outside the allow-list.
func (b *Bot) restricted(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender := c.Sender()
		if sender == nil || !b.allowed[sender.ID] {
			if sender != nil {
				log.Warnf("ignoring update from user %d: not in allow-list", sender.ID)
			}
			return nil
		}
		return next(c)
	}
}

func (b *Bot) handleMyID(c tele.Context) error {
	return c.Send(fmt.Sprintf("Your User ID: %d\n\nAdd it to ALLOWED_USER_IDS to unlock the bot.", c.Sender().ID))
}

func (b *Bot) handleStart(c tele.Context) error {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text(btnCertificate), menu.Text(btnACCRequest)),
		menu.Row(menu.Text(btnSettings), menu.Text(btnHelp)),
	)

	greeting := fmt.Sprintf("Hi, %s! 👋\n\n"+
		"I analyze digital certificates. What I can do:\n"+
		"– Analyze %s files\n"+
		"– Process ZIP archives with certificates\n"+
		"– Build an Excel report with validity periods\n"+
		"– Queue video downloads with /download <url>\n\n"+
		"Pick an action in the menu below:",
		c.Sender().FirstName, strings.Join(certs.AllowedExtensions(), ", "))

	return c.Send(greeting, menu)
}

func (b *Bot) handleHelp(c tele.Context) error {
	return c.Send(fmt.Sprintf("To get a report, press '%s' and send me certificate file(s) (%s) or a ZIP archive.",
		btnCertificate, strings.Join(certs.AllowedExtensions(), ", ")))
}

// handleText routes the reply keyboard buttons.
func (b *Bot) handleText(c tele.Context) error {
	switch c.Text() {
	case btnCertificate:
		return c.Send(fmt.Sprintf("Please send me certificate file(s) (%s) or a ZIP archive with them.\n"+
			"I will analyze them and send you a report.",
			strings.Join(certs.AllowedExtensions(), ", ")))
	case btnHelp:
		return b.handleHelp(c)
	case btnSettings:
		return c.Send("This section is under construction. New features coming soon!")
	case btnACCRequest:
		log.Infof("user %d pressed the ACC Request placeholder", c.Sender().ID)
		return c.Send("📈 The ACC-Finance request feature is under construction.\n\n" +
			"Soon you will be able to generate a registration request to attach your certificate.\n\n" +
			"Stay tuned!")
	default:
		return nil
	}
}

func (b *Bot) handleStatus(c tele.Context) error {
	totals, err := b.history.Totals()
	if err != nil {
		log.Errorf("cannot read history totals: %v", err)
		return c.Send("Could not read statistics, try again later.")
	}
	return c.Send(fmt.Sprintf("📊 Reports: %d\nCertificates analyzed: %d\nExpired found: %d",
		totals.Reports, totals.Certificates, totals.Expired))
}

func (b *Bot) handleDownload(c tele.Context) error {
	payload := strings.TrimSpace(c.Message().Payload)
	if payload == "" {
		return c.Send("Usage: /download <video url>")
	}

	u, err := url.ParseRequestURI(payload)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return c.Send("⛔ That does not look like a valid video URL.")
	}

	if b.tasks == nil {
		return c.Send("⛔ Video downloads are not configured on this instance.")
	}

	id, err := b.tasks.Enqueue(context.Background(), c.Sender().ID, payload)
	if err != nil {
		log.Errorf("cannot enqueue download for user %d: %v", c.Sender().ID, err)
		return c.Send("❌ Could not queue the download. Try again later.")
	}

	log.Infof("queued download task %s for user %d", id, c.Sender().ID)
	return c.Send("⏳ Queued. I will send the video as soon as it is ready.")
}

func (b *Bot) handleDocument(c tele.Context) error {
	doc := c.Message().Document
	if doc == nil {
		return nil
	}
	userID := c.Sender().ID

	if doc.FileSize > MaxFileSize {
		log.Warnf("user %d sent an oversized file: %s (%.2f MB)",
			userID, doc.FileName, float64(doc.FileSize)/1024/1024)
		return c.Send(fmt.Sprintf("❌ File is too large.\nMaximum allowed size: %d MB.", MaxFileSize/1024/1024))
	}

	name := doc.FileName
	if !certs.HasAllowedExtension(name) && !strings.HasSuffix(strings.ToLower(name), ".zip") {
		log.Infof("user %d sent a file with an unsupported format: %s", userID, name)
		return c.Send(fmt.Sprintf("❌ Unsupported file format.\n\nI only accept files with extensions: %s, plus .zip archives.",
			strings.Join(certs.AllowedExtensions(), ", ")))
	}

	log.Infof("received file %s from user %d", name, userID)
	if err := c.Send("Analyzing certificate(s), please wait..."); err != nil {
		return err
	}

	raw, err := b.download(&doc.File)
	if err != nil {
		log.Errorf("unexpected error while handling a document: %v", err)
		return c.Send(fmt.Sprintf("An unexpected error occurred: %v. Please try again.", err))
	}

	infos := certs.Extract(raw, name, time.Now())
	if len(infos) == 0 {
		return c.Send("Could not find or parse any certificates in the file/archive. Make sure the file format is correct.")
	}

	buf, err := report.Excel(infos)
	if err != nil {
		log.Errorf("cannot build the Excel report: %v", err)
		return c.Send(fmt.Sprintf("An unexpected error occurred: %v. Please try again.", err))
	}

	if err := c.Send(report.Summary(infos)); err != nil {
		return err
	}
	if err := c.Send(&tele.Document{File: tele.FromReader(buf), FileName: report.FileName}); err != nil {
		return err
	}

	if err := b.history.Record(userID, name, len(infos), report.CountExpired(infos)); err != nil {
		log.Warnf("cannot record report history: %v", err)
	}

	log.Infof("certificate report sent to user %d", userID)
	return nil
}

func (b *Bot) download(file *tele.File) ([]byte, error) {
	rc, err := b.api.File(file)
	if err != nil {
		return nil, fmt.Errorf("fetch file from Telegram: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read file body: %w", err)
	}
	return raw, nil
}

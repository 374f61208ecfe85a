package gateway

import (
	"context"
	"fmt"
	"html"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/treadly55/weekend-away-event-finder/internal/agent"
)

const helpText = "Send /events <city> <today|tomorrow>, for example /events Sydney today."

// Runner is the part of the agent the gateway needs.
type Runner interface {
	Run(ctx context.Context, req agent.Request) agent.Result
}

type TelegramGateway struct {
	Bot    *tgbotapi.BotAPI
	Runner Runner
	Now    func() time.Time
	Log    logrus.FieldLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	sessions map[int64]*agent.Session
}

func NewTelegramGateway(token string, runner Runner, log logrus.FieldLogger) (*TelegramGateway, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	tg := newGateway(bot, runner, log)
	tg.Log.Infof("Authorized on account %s", bot.Self.UserName)
	return tg, nil
}

func newGateway(bot *tgbotapi.BotAPI, runner Runner, log logrus.FieldLogger) *TelegramGateway {
	if log == nil {
		log = logrus.StandardLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TelegramGateway{
		Bot:      bot,
		Runner:   runner,
		Now:      time.Now,
		Log:      log,
		ctx:      ctx,
		cancel:   cancel,
		sessions: make(map[int64]*agent.Session),
	}
}

func (tg *TelegramGateway) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := tg.Bot.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil || !update.Message.IsCommand() {
			continue
		}

		chatID := update.Message.Chat.ID
		command := update.Message.Command()
		args := update.Message.CommandArguments()
		user := "unknown"
		if update.Message.From != nil {
			user = update.Message.From.UserName
		}
		tg.Log.WithFields(logrus.Fields{"chat_id": chatID, "user": user}).Infof("/%s %s", command, args)

		// Chats run independently; a chat only waits on itself.
		go func() {
			reply := tg.Handle(tg.ctx, chatID, command, args)
			if err := tg.Send(strconv.FormatInt(chatID, 10), reply); err != nil {
				tg.Log.WithField("chat_id", chatID).Errorf("failed to send reply: %v", err)
			}
		}()
	}
	return nil
}

// Handle answers one command. Each chat owns a session guard so a second
// /events while one is running is refused instead of queued.
func (tg *TelegramGateway) Handle(ctx context.Context, chatID int64, command, args string) string {
	switch command {
	case "start", "help":
		return html.EscapeString(helpText)
	case "events":
	default:
		return html.EscapeString("Unknown command. " + helpText)
	}

	city, tf, err := ParseEventsCommand(args, tg.Now())
	if err != nil {
		return html.EscapeString(err.Error())
	}

	session := tg.session(chatID)
	if !session.TryStart() {
		return "Still looking for events from your last request, hang on."
	}
	defer session.Done()

	res := tg.Runner.Run(ctx, agent.Request{
		City:        city,
		EventKey:    tf.EventKey,
		WeatherDate: tf.WeatherDate,
		Progress: func(msg string) {
			tg.Log.WithField("chat_id", chatID).Info(msg)
		},
	})

	if res.Outcome == agent.OutcomeFinal {
		return RenderTelegramHTML(res.Text)
	}
	return html.EscapeString(res.Text)
}

func (tg *TelegramGateway) session(chatID int64) *agent.Session {
	tg.mu.Lock()
	defer tg.mu.Unlock()
	s, ok := tg.sessions[chatID]
	if !ok {
		s = &agent.Session{}
		tg.sessions[chatID] = s
	}
	return s
}

func (tg *TelegramGateway) Send(chatID string, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil || id == 0 {
		return fmt.Errorf("invalid chat ID: %s", chatID)
	}

	msg := tgbotapi.NewMessage(id, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	_, err = tg.Bot.Send(msg)
	return err
}

func (tg *TelegramGateway) Stop() error {
	tg.cancel()
	tg.Bot.StopReceivingUpdates()
	return nil
}

package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	app "colorify/internal/application"
	"colorify/internal/domain/entity"
)

const (
	msgStart = `👋 Привет! Я Colorify — раскрашиваю чёрно-белые фотографии.

📸 Отправьте мне фото, и я верну его в цвете.

📋 Команды:
/colorize — раскрасить фото
/help — справка
/cancel — отменить текущую операцию`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ Отправьте чёрно-белое фото
2️⃣ Модель подберёт цвета
3️⃣ Вы получите раскрашенную картинку

💡 Рекомендации:
• Лучше всего работают портреты и пейзажи
• Отправляйте фото как фото, а не как файл

📋 Команды:
/colorize — раскрасить фото
/cancel — отменить операцию`

	msgAwaitingPhoto  = "📸 Отправьте чёрно-белое фото."
	msgCancelled      = "❌ Операция отменена. Отправьте /colorize, чтобы начать заново."
	msgSendPhoto      = "📸 Пожалуйста, отправьте фото для раскрашивания."
	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing     = "⏳ Раскрашиваю изображение..."
	msgBusy           = "⏳ Предыдущее фото ещё в работе, подождите."
	msgLoading        = "⏳ Модель ещё загружается, попробуйте через минуту."
	msgModelFailed    = "🚫 Модель не загрузилась, раскрашивание сейчас недоступно."
	msgFailed         = "⚠️ Не удалось раскрасить изображение. Попробуйте другое фото."
	msgDone           = "🎨 Готово!"
)

// Colorizer сервис колоризации, общий с веб-страницей
type Colorizer interface {
	State() entity.ReadinessState
	Colorize(ctx context.Context, path string) (entity.ColorizeResult, error)
}

// Client часть Telegram API, которой пользуется бот
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot представляет Telegram-бота
type Bot struct {
	api       Client
	http      tgbotapi.HTTPClient
	users     *app.UserService
	colorizer Colorizer
	uploadDir string
	log       logrus.FieldLogger
	wg        sync.WaitGroup
}

// NewBot создаёт нового бота
func NewBot(token string, users *app.UserService, colorizer Colorizer, uploadDir string, log logrus.FieldLogger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}

	log.WithField("account", api.Self.UserName).Info("telegram authorized")
	return newBot(api, api.Client, users, colorizer, uploadDir, log), nil
}

func newBot(api Client, httpClient tgbotapi.HTTPClient, users *app.UserService, colorizer Colorizer, uploadDir string, log logrus.FieldLogger) *Bot {
	return &Bot{
		api:       api,
		http:      httpClient,
		users:     users,
		colorizer: colorizer,
		uploadDir: uploadDir,
		log:       log.WithField("component", "telegram"),
	}
}

// Run обрабатывает апдейты до отмены ctx
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.wg.Wait()
			return nil
		case update, ok := <-updates:
			if !ok {
				b.wg.Wait()
				return nil
			}
			if update.Message == nil {
				continue
			}

			// Каждое сообщение в своей горутине: долгий инференс не держит остальные чаты.
			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleMessage(ctx, msg)
			}(update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}

	// Обработка команд
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	// Обработка фото
	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg)
		return
	}

	// Текстовое сообщение (не команда)
	b.sendMessage(msg.Chat.ID, msgSendPhoto)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	var (
		reply string
		err   error
	)
	switch msg.Command() {
	case "start":
		_, err = b.users.Cancel(ctx, userID, chatID)
		reply = msgStart
	case "help":
		reply = msgHelp
	case "colorize":
		_, err = b.users.BeginColorize(ctx, userID, chatID)
		reply = msgAwaitingPhoto
	case "cancel":
		_, err = b.users.Cancel(ctx, userID, chatID)
		reply = msgCancelled
	default:
		reply = msgUnknownCommand
	}

	if err != nil {
		b.log.WithError(err).Error("failed to update user state")
	}
	b.sendMessage(chatID, reply)
}

// handlePhoto скачивает фото, раскрашивает и отправляет результат
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	switch b.colorizer.State() {
	case entity.StateReady:
	case entity.StateFailed:
		b.sendMessage(chatID, msgModelFailed)
		return
	default:
		b.sendMessage(chatID, msgLoading)
		return
	}

	if _, err := b.users.StartProcessing(ctx, userID, chatID); err != nil {
		if errors.Is(err, app.ErrBusy) {
			b.sendMessage(chatID, msgBusy)
			return
		}
		b.log.WithError(err).Error("failed to update user state")
		return
	}

	var resultPath string
	defer func() {
		if _, err := b.users.Finish(ctx, userID, chatID, resultPath); err != nil {
			b.log.WithError(err).Error("failed to update user state")
		}
	}()

	b.sendMessage(chatID, msgProcessing)

	// Берём фото с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	input, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.log.WithError(err).Error("failed to download photo")
		b.sendMessage(chatID, msgFailed)
		return
	}

	res, err := b.colorizer.Colorize(ctx, input)
	b.log.WithField("chat_id", chatID).Infof("Inference result: %s", res.Message)
	if err != nil {
		b.sendMessage(chatID, msgFailed)
		return
	}
	resultPath = res.Path

	reply := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(res.Path))
	reply.Caption = msgDone
	if _, err := b.api.Send(reply); err != nil {
		b.log.WithError(err).Error("failed to send photo")
	}
}

// downloadFile скачивает файл из Telegram во временную директорию
func (b *Bot) downloadFile(ctx context.Context, fileID string) (string, error) {
	link, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}

	resp, err := b.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download file: status %s", resp.Status)
	}

	return saveToTemp(b.uploadDir, filepath.Base(req.URL.Path), resp.Body)
}

// saveToTemp пишет поток в новый файл внутри свежей временной директории
func saveToTemp(root, name string, r io.Reader) (string, error) {
	dir, err := os.MkdirTemp(root, "colorify-upload-")
	if err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "photo.jpg"
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close file: %w", err)
	}
	return path, nil
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.WithError(err).Error("failed to send message")
	}
}

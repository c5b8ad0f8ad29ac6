package application

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/bnema/shopper-earnings-bot/internal/domain"
	"github.com/bnema/shopper-earnings-bot/internal/ports"
)

// User-facing texts. The bot speaks Chilean Spanish, matching its audience.
const (
	msgIntro1 = "Hola! Mi nombre es Shopper Bot 👩‍🎤, soy un bot que te ayuda a calcular cuánto has ganado en el último tiempo."
	msgIntro2 = "Para comenzar, necesito tus credenciales del shopper center, las mismas que usas para la app y la página web."
	msgIntro3 = "Prometo usar tus datos sólo para entregarte información, y no las enviaré a nadie más 🤐😇😉."
	msgIntro4 = "Dame tu email 📧."

	msgBadEmail      = "No parece un email válido. Dame tu email nuevamente."
	msgAskPassword   = "Bien. Ahora, dame tu contraseña 🔑."
	msgBadPassword   = "No parece una contraseña válida. Dame tu contraseña nuevamente."
	msgTryingLogin   = "Bien. Intentaré hacer login... ⏱"
	msgLoginFailed   = "La clave no funcionó 🙁. Dame tu contraseña nuevamente."
	msgLoginOK       = "La clave funcionó! 😁"
	msgSearching     = "Buscando entre tus órdenes y comisiones... 🔎"
	msgReady         = "Listo. Puedes preguntarme cuánto has ganado 🔮 \n/hoy \n/ayer \n/estaSemana o \n/semanaPasada"
	msgChecking      = "Revisando tus últimos pedidos 🤓..."
	msgLogoutStart   = "Espero verte pronto! Borrando tus datos..."
	msgLogoutDone    = "Listo! Envía /start para comenzar."
	msgQueryFailed   = "Ups! Tuve un problema respondiendo tu consulta 🙄 espero se resuelva pronto 😬"
	msgNothingToday  = "No has ganado nada hoy (todavía) 💪."
	msgNoWorkYesterd = "Al parecer ayer no trabajaste 🙄."
)

const (
	cmdToday     = "/hoy"
	cmdYesterday = "/ayer"
	cmdThisWeek  = "/estaSemana"
	cmdLastWeek  = "/semanaPasada"
	cmdLogout    = "/cerrarSesion"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MoneyFormatter renders an amount for user-facing replies.
type MoneyFormatter func(domain.Money) string

// Conversation drives the four-phase chat flow. It is the only layer that
// talks to the user; everything below returns values or typed errors.
//
// Sessions are cached in memory and lazily populated from the repository;
// the repository stays the source of truth on cold start. One turn at a
// time per chat: concurrent messages from the same chat queue on the
// per-chat lock, while distinct chats proceed in parallel.
type Conversation struct {
	sessions    ports.SessionRepository
	secrets     ports.SecretStore
	gateway     ports.ShopperGateway
	transport   ports.Transport
	sync        *SyncService
	formatMoney MoneyFormatter

	mu    sync.Mutex
	locks map[domain.ChatID]*sync.Mutex
	cache map[domain.ChatID]domain.Session
}

func NewConversation(sessions ports.SessionRepository, secrets ports.SecretStore, gateway ports.ShopperGateway, transport ports.Transport, syncService *SyncService, formatMoney MoneyFormatter) *Conversation {
	if formatMoney == nil {
		formatMoney = func(amount domain.Money) string {
			return fmt.Sprintf("$%d", int64(amount))
		}
	}

	return &Conversation{
		sessions:    sessions,
		secrets:     secrets,
		gateway:     gateway,
		transport:   transport,
		sync:        syncService,
		formatMoney: formatMoney,
		locks:       map[domain.ChatID]*sync.Mutex{},
		cache:       map[domain.ChatID]domain.Session{},
	}
}

// HandleMessage runs one conversation turn. The returned error covers
// infrastructure failures only (loading or persisting the session);
// user-level failures are answered in-band and leave the stored state
// untouched.
func (c *Conversation) HandleMessage(ctx context.Context, chatID domain.ChatID, text string) error {
	lock := c.lockFor(chatID)
	lock.Lock()
	defer lock.Unlock()

	session, err := c.loadSession(ctx, chatID)
	if err != nil {
		return err
	}

	var next domain.Session
	switch session.Phase {
	case domain.PhaseGreeting:
		next = c.onGreeting(ctx, session)
	case domain.PhaseAskEmail:
		next = c.onAskEmail(ctx, session, text)
	case domain.PhaseAskPassword:
		next = c.onAskPassword(ctx, session, text)
	case domain.PhaseAnswerQueries:
		next, err = c.onAnswerQueries(ctx, session, text)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("session %s: unknown phase %q", chatID, session.Phase)
	}

	if err := c.sessions.Save(ctx, next); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	c.storeSession(next)
	return nil
}

func (c *Conversation) onGreeting(ctx context.Context, session domain.Session) domain.Session {
	c.say(ctx, session.ChatID, msgIntro1, msgIntro2, msgIntro3, msgIntro4)
	session.Phase = domain.PhaseAskEmail
	return session
}

func (c *Conversation) onAskEmail(ctx context.Context, session domain.Session, text string) domain.Session {
	email := strings.TrimSpace(text)
	if !emailPattern.MatchString(email) {
		c.say(ctx, session.ChatID, msgBadEmail)
		return session
	}

	session.Email = email
	session.Phase = domain.PhaseAskPassword
	c.say(ctx, session.ChatID, msgAskPassword)
	return session
}

func (c *Conversation) onAskPassword(ctx context.Context, session domain.Session, text string) domain.Session {
	if strings.TrimSpace(text) == "" {
		c.say(ctx, session.ChatID, msgBadPassword)
		return session
	}

	c.say(ctx, session.ChatID, msgTryingLogin)
	token, err := c.gateway.Login(ctx, session.Email, text)
	if err != nil {
		c.say(ctx, session.ChatID, msgLoginFailed)
		return session
	}

	tokenRef := tokenRefFor(session.ChatID)
	if err := c.secrets.Put(ctx, tokenRef, string(token)); err != nil {
		c.say(ctx, session.ChatID, msgQueryFailed)
		return session
	}
	session.TokenRef = tokenRef

	c.say(ctx, session.ChatID, msgLoginOK, msgSearching)

	synced, err := c.sync.Sync(ctx, session)
	if err != nil {
		c.say(ctx, session.ChatID, msgQueryFailed)
		return session
	}

	synced.Phase = domain.PhaseAnswerQueries
	c.say(ctx, synced.ChatID, msgReady)
	return synced
}

func (c *Conversation) onAnswerQueries(ctx context.Context, session domain.Session, text string) (domain.Session, error) {
	if strings.Contains(text, cmdLogout) {
		return c.logout(ctx, session)
	}

	command := matchQueryCommand(text)
	if command == "" {
		// Anything else during steady state is deliberately a no-op:
		// no reply, no transition.
		return session, nil
	}

	c.say(ctx, session.ChatID, msgChecking)

	synced, err := c.sync.Sync(ctx, session)
	if err != nil {
		c.say(ctx, session.ChatID, msgQueryFailed)
		return session, nil
	}

	buckets := MergeOrders(synced.Deliveries, synced.Commissions)
	now := c.sync.clock.Now()

	switch command {
	case cmdToday:
		day, _ := Today(now)
		if !buckets.Has(domain.DayKeyFor(day)) {
			c.say(ctx, synced.ChatID, msgNothingToday)
			break
		}
		sum := SumRange(buckets, day, day)
		c.say(ctx, synced.ChatID, fmt.Sprintf("Hoy has ganado %s 💵.", c.formatMoney(sum)))
	case cmdYesterday:
		day, _ := Yesterday(now)
		if !buckets.Has(domain.DayKeyFor(day)) {
			c.say(ctx, synced.ChatID, msgNoWorkYesterd)
			break
		}
		sum := SumRange(buckets, day, day)
		c.say(ctx, synced.ChatID, fmt.Sprintf("Ayer ganaste %s 💰.", c.formatMoney(sum)))
	case cmdThisWeek:
		start, end := ThisWeek(now)
		sum := SumRange(buckets, start, end)
		c.say(ctx, synced.ChatID, fmt.Sprintf("Esta semana has ganado %s 💰💰.", c.formatMoney(sum)))
	case cmdLastWeek:
		start, end := LastWeek(now)
		sum := SumRange(buckets, start, end)
		c.say(ctx, synced.ChatID, fmt.Sprintf("La semana pasada ganaste %s 💸.", c.formatMoney(sum)))
	}

	return synced, nil
}

func (c *Conversation) logout(ctx context.Context, session domain.Session) (domain.Session, error) {
	c.say(ctx, session.ChatID, msgLogoutStart)

	if session.TokenRef != "" {
		if err := c.secrets.Delete(ctx, session.TokenRef); err != nil {
			return session, fmt.Errorf("delete session token: %w", err)
		}
	}
	if err := c.sessions.Delete(ctx, session.ChatID); err != nil {
		return session, fmt.Errorf("delete session: %w", err)
	}

	c.say(ctx, session.ChatID, msgLogoutDone)
	return domain.NewSession(session.ChatID), nil
}

func matchQueryCommand(text string) string {
	// Substring matching, mirroring the transport's loose command
	// semantics; /semanaPasada must be probed before any future prefix
	// collisions, so keep the longer commands first.
	for _, command := range []string{cmdLastWeek, cmdThisWeek, cmdYesterday, cmdToday} {
		if strings.Contains(text, command) {
			return command
		}
	}
	return ""
}

func tokenRefFor(chatID domain.ChatID) string {
	return fmt.Sprintf("shopper/%s/session_token", chatID)
}

// say delivers replies best-effort and in order. Transport failures do not
// abort the turn: the conversation owns state transitions, the transport
// owns delivery.
func (c *Conversation) say(ctx context.Context, chatID domain.ChatID, texts ...string) {
	for _, text := range texts {
		_ = c.transport.Send(ctx, chatID, text)
	}
}

func (c *Conversation) loadSession(ctx context.Context, chatID domain.ChatID) (domain.Session, error) {
	c.mu.Lock()
	cached, ok := c.cache[chatID]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	session, err := c.sessions.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.NewSession(chatID), nil
		}
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}

func (c *Conversation) storeSession(session domain.Session) {
	c.mu.Lock()
	c.cache[session.ChatID] = session
	c.mu.Unlock()
}

func (c *Conversation) lockFor(chatID domain.ChatID) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()

	if lock, ok := c.locks[chatID]; ok {
		return lock
	}
	lock := &sync.Mutex{}
	c.locks[chatID] = lock
	return lock
}

package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"strconv"

	"github.com/google/uuid"

	"gofunko/internal/domain"
	apperror "gofunko/internal/errors"
	"gofunko/internal/pkg/logger"
	"gofunko/internal/pkg/ratelimit"
	"gofunko/internal/protocol"
)

// maxLineBytes limita o tamanho de uma linha de requisição; entradas
// hostis maiores derrubam só a própria sessão.
const maxLineBytes = 1 << 20

// sessionWorker é o ator por conexão que implementa a máquina de estados
// do protocolo: lê requisições linha a linha, autentica/autoriza,
// despacha para os serviços e escreve a resposta.
//
// Um erro de domínio vira uma Response ERROR e a sessão segue viva; só
// falha de transporte ou EXIT encerram o Worker, e apenas esta conexão.
type sessionWorker struct {
	conn     net.Conn
	clientID int64

	funkos  domain.FunkoService
	users   domain.UserService
	limiter *ratelimit.Limiter
	logger  logger.Logger

	out      *json.Encoder
	handlers map[protocol.RequestType]func(ctx context.Context, req protocol.Request) protocol.Response
}

// newSessionWorker monta o Worker e sua tabela de dispatch.
// A tabela é a enumeração fechada do protocolo: operação nova = entrada nova.
func newSessionWorker(conn net.Conn, clientID int64, funkos domain.FunkoService, users domain.UserService, limiter *ratelimit.Limiter, log logger.Logger) *sessionWorker {
	w := &sessionWorker{
		conn:     conn,
		clientID: clientID,
		funkos:   funkos,
		users:    users,
		limiter:  limiter,
		logger:   log,
		out:      json.NewEncoder(conn),
	}

	w.handlers = map[protocol.RequestType]func(ctx context.Context, req protocol.Request) protocol.Response{
		protocol.TypeLogin:          w.handleLogin,
		protocol.TypeGetAll:         w.handleGetAll,
		protocol.TypeGetByCod:       w.handleGetByCod,
		protocol.TypeGetByModel:     w.handleGetByModel,
		protocol.TypeGetByCreatedAt: w.handleGetByCreatedAt,
		protocol.TypeCreate:         w.handleCreate,
		protocol.TypeUpdate:         w.handleUpdate,
		protocol.TypeDelete:         w.handleDelete,
		protocol.TypeDeleteAll:      w.handleDeleteAll,
	}

	return w
}

// Run atende a conexão até EXIT ou falha de transporte.
// A ordem por conexão é preservada: uma requisição por vez, respondida
// na ordem recebida.
func (w *sessionWorker) Run() {
	defer w.conn.Close()

	w.logger.Debug("Conexão aceita.", map[string]interface{}{
		"client": w.clientID,
		"remote": w.conn.RemoteAddr().String(),
	})

	ctx := context.Background()

	scanner := bufio.NewScanner(w.conn)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req protocol.Request
		if err := json.Unmarshal(line, &req); err != nil {
			// Mensagem malformada: ERROR e a sessão permanece no estado atual.
			w.writeError(apperror.NewProtocolError("malformed request: " + err.Error()))
			continue
		}

		if req.Type == protocol.TypeExit {
			w.logger.Debug("Cliente encerrou a sessão.", map[string]interface{}{"client": w.clientID})
			w.write(protocol.NewResponse(protocol.StatusBye, "bye"))
			return
		}

		handler, ok := w.handlers[req.Type]
		if !ok {
			w.writeError(apperror.NewProtocolError("unsupported request type: " + string(req.Type)))
			continue
		}

		w.write(handler(ctx, req))
	}

	if err := scanner.Err(); err != nil {
		w.logger.Debug("Sessão encerrada por falha de transporte.", map[string]interface{}{
			"client": w.clientID,
			"reason": err.Error(),
		})
	}
}

// authenticate é o portão de autenticação: toda requisição que não seja
// LOGIN/EXIT precisa carregar um token verificável.
func (w *sessionWorker) authenticate(ctx context.Context, req protocol.Request) (domain.User, error) {
	return w.users.Authenticate(ctx, req.Token)
}

// --- Handlers ---

func (w *sessionWorker) handleLogin(ctx context.Context, req protocol.Request) protocol.Response {
	var login protocol.Login
	if err := json.Unmarshal([]byte(req.Content), &login); err != nil {
		return errorResponse(apperror.NewValidationError("malformed login payload"))
	}

	// Rate limit por username + IP remoto, antes de tocar o credential store.
	remoteIP := remoteHost(w.conn)
	if !w.limiter.Allow(ctx, login.Username+"@"+remoteIP) {
		w.logger.Info("Login bloqueado por rate limit.", map[string]interface{}{
			"username": login.Username,
			"remote":   remoteIP,
		})
		return errorResponse(apperror.NewUnauthorizedError("too many login attempts"))
	}

	tokenString, err := w.users.Login(ctx, login.Username, login.Password)
	if err != nil {
		// Falha de credencial: nenhum token é emitido, a sessão continua
		// não autenticada.
		w.logger.Info("Falha de login.", map[string]interface{}{"username": login.Username})
		return errorResponse(err)
	}

	return protocol.NewResponse(protocol.StatusToken, tokenString)
}

func (w *sessionWorker) handleGetAll(ctx context.Context, req protocol.Request) protocol.Response {
	if _, err := w.authenticate(ctx, req); err != nil {
		return errorResponse(err)
	}

	funkos, err := w.funkos.FindAll(ctx)
	if err != nil {
		return errorResponse(err)
	}

	return okJSON(funkos)
}

func (w *sessionWorker) handleGetByCod(ctx context.Context, req protocol.Request) protocol.Response {
	if _, err := w.authenticate(ctx, req); err != nil {
		return errorResponse(err)
	}

	cod, err := uuid.Parse(req.Content)
	if err != nil {
		return errorResponse(apperror.NewValidationError("content must be a valid funko cod (UUID)"))
	}

	funko, err := w.funkos.FindByCod(ctx, cod)
	if err != nil {
		return errorResponse(err)
	}

	return okJSON(funko)
}

func (w *sessionWorker) handleGetByModel(ctx context.Context, req protocol.Request) protocol.Response {
	if _, err := w.authenticate(ctx, req); err != nil {
		return errorResponse(err)
	}

	model, err := domain.ParseModel(req.Content)
	if err != nil {
		return errorResponse(apperror.NewValidationError(err.Error()))
	}

	funkos, err := w.funkos.FindByModel(ctx, model)
	if err != nil {
		return errorResponse(err)
	}

	return okJSON(funkos)
}

func (w *sessionWorker) handleGetByCreatedAt(ctx context.Context, req protocol.Request) protocol.Response {
	if _, err := w.authenticate(ctx, req); err != nil {
		return errorResponse(err)
	}

	year, err := strconv.Atoi(req.Content)
	if err != nil {
		return errorResponse(apperror.NewValidationError("content must be a year"))
	}

	funkos, err := w.funkos.FindByReleaseYear(ctx, year)
	if err != nil {
		return errorResponse(err)
	}

	return okJSON(funkos)
}

func (w *sessionWorker) handleCreate(ctx context.Context, req protocol.Request) protocol.Response {
	if _, err := w.authenticate(ctx, req); err != nil {
		return errorResponse(err)
	}

	var funko domain.Funko
	if err := json.Unmarshal([]byte(req.Content), &funko); err != nil {
		return errorResponse(apperror.NewValidationError("malformed funko payload"))
	}

	created, err := w.funkos.Create(ctx, funko)
	if err != nil {
		return errorResponse(err)
	}

	return okJSON(created)
}

func (w *sessionWorker) handleUpdate(ctx context.Context, req protocol.Request) protocol.Response {
	if _, err := w.authenticate(ctx, req); err != nil {
		return errorResponse(err)
	}

	var funko domain.Funko
	if err := json.Unmarshal([]byte(req.Content), &funko); err != nil {
		return errorResponse(apperror.NewValidationError("malformed funko payload"))
	}

	updated, err := w.funkos.Update(ctx, funko)
	if err != nil {
		return errorResponse(err)
	}

	return okJSON(updated)
}

func (w *sessionWorker) handleDelete(ctx context.Context, req protocol.Request) protocol.Response {
	user, err := w.authenticate(ctx, req)
	if err != nil {
		return errorResponse(err)
	}
	// DELETE exige papel ADMIN; sem ele nem cache nem repositório são tocados.
	if user.Role != domain.RoleAdmin {
		return errorResponse(apperror.NewForbiddenError("insufficient permissions"))
	}

	id, err := strconv.ParseInt(req.Content, 10, 64)
	if err != nil {
		return errorResponse(apperror.NewValidationError("content must be a funko id"))
	}

	deleted, err := w.funkos.DeleteByID(ctx, id)
	if err != nil {
		return errorResponse(err)
	}

	return okJSON(deleted)
}

func (w *sessionWorker) handleDeleteAll(ctx context.Context, req protocol.Request) protocol.Response {
	user, err := w.authenticate(ctx, req)
	if err != nil {
		return errorResponse(err)
	}
	if user.Role != domain.RoleAdmin {
		return errorResponse(apperror.NewForbiddenError("insufficient permissions"))
	}

	if err := w.funkos.DeleteAll(ctx); err != nil {
		return errorResponse(err)
	}

	return protocol.NewResponse(protocol.StatusOK, "all funkos deleted")
}

// --- Escrita de respostas ---

func (w *sessionWorker) write(resp protocol.Response) {
	if err := w.out.Encode(resp); err != nil {
		w.logger.Debug("Falha ao escrever resposta no socket.", map[string]interface{}{
			"client": w.clientID,
			"reason": err.Error(),
		})
	}
}

func (w *sessionWorker) writeError(err error) {
	w.write(errorResponse(err))
}

// errorResponse converte qualquer erro de domínio em uma Response ERROR
// com mensagem legível; o transporte nunca é derrubado por isso.
func errorResponse(err error) protocol.Response {
	_, msg := apperror.MapToResponse(err)
	return protocol.NewResponse(protocol.StatusError, msg)
}

// okJSON serializa o payload como JSON e o embute em uma Response OK.
func okJSON(payload interface{}) protocol.Response {
	data, err := json.Marshal(payload)
	if err != nil {
		return errorResponse(apperror.NewInternalError("failed to serialize response payload", err))
	}
	return protocol.NewResponse(protocol.StatusOK, string(data))
}

// remoteHost extrai o host do endereço remoto da conexão.
func remoteHost(conn net.Conn) string {
	host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
	if err != nil {
		return conn.RemoteAddr().String()
	}
	return host
}

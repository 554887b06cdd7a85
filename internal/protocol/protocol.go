package protocol

import (
	"time"
)

// O protocolo é texto UTF-8, um objeto JSON por linha, em ambas as direções.
// A enumeração de tipos é fechada: uma operação nova exige uma entrada nova
// aqui e um handler novo na tabela de dispatch do Session Worker.

// RequestType é a enumeração fechada de operações do protocolo.
type RequestType string

const (
	TypeLogin          RequestType = "LOGIN"
	TypeExit           RequestType = "EXIT"
	TypeGetAll         RequestType = "GETALL"
	TypeGetByCod       RequestType = "GETBYCOD"
	TypeGetByModel     RequestType = "GETBYMODEL"
	TypeGetByCreatedAt RequestType = "GETBYCREATEDAT"
	TypeCreate         RequestType = "CREATE"
	TypeUpdate         RequestType = "UPDATE"
	TypeDelete         RequestType = "DELETE"
	TypeDeleteAll      RequestType = "DELETEALL"
)

// Request é a mensagem enviada pelo cliente.
// Token é obrigatório exceto para LOGIN e EXIT.
type Request struct {
	Type      RequestType `json:"type"`
	Content   string      `json:"content,omitempty"`
	Token     string      `json:"token,omitempty"`
	CreatedAt string      `json:"createdAt"`
}

// Status é a enumeração fechada de estados de uma Response.
type Status string

const (
	StatusOK    Status = "OK"
	StatusError Status = "ERROR"
	StatusToken Status = "TOKEN"
	StatusBye   Status = "BYE"
)

// Response é a mensagem enviada pelo servidor.
// Toda resposta carrega um status; o cliente deve tratar qualquer status
// diferente do esperado como falha e inspecionar Content.
type Response struct {
	Status    Status `json:"status"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
}

// Login é o payload (Content) de uma requisição LOGIN.
type Login struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// NewResponse monta uma Response carimbada com o horário atual (ISO-8601).
func NewResponse(status Status, content string) Response {
	return Response{
		Status:    status,
		Content:   content,
		CreatedAt: time.Now().Format(time.RFC3339),
	}
}

package main

import (
	"bufio"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"gofunko/internal/domain"
	"gofunko/internal/protocol"
)

// Cliente de demonstração: percorre o protocolo completo contra um
// servidor em execução (login como pepe, consultas, criação, atualização,
// remoção e saída).
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ Aviso: Arquivo .env não encontrado; usando o ambiente do sistema.")
	}

	host := envOr("CLIENT_HOST", "localhost")
	port := envOr("CLIENT_PORT", "3000")
	caFile := envOr("TLS_CA_FILE", "")

	conn, err := dial(host+":"+port, caFile)
	if err != nil {
		log.Fatalf("🔴 Falha ao conectar: %v", err)
	}
	defer conn.Close()

	c := &client{
		out: json.NewEncoder(conn),
		in:  bufio.NewReader(conn),
	}

	// 1. LOGIN
	tokenString, err := c.login("pepe", "pepe1234")
	if err != nil {
		log.Fatalf("🔴 Login falhou: %v", err)
	}
	fmt.Println("🟢 Token:", tokenString)

	// 2. Consultas
	c.send(protocol.TypeGetAll, "", tokenString)
	c.send(protocol.TypeGetByCod, "a0eebc99-9c0b-4ef8-bb6d-6bb9bd380a11", tokenString)
	c.send(protocol.TypeGetByModel, string(domain.ModelAnime), tokenString)
	c.send(protocol.TypeGetByCreatedAt, "2023", tokenString)

	// 3. CREATE
	newFunko := domain.Funko{
		Cod:         uuid.New(),
		Name:        "Mi Funko 2",
		Model:       domain.ModelAnime,
		Price:       55.0,
		ReleaseDate: time.Now(),
	}
	payload, _ := json.Marshal(newFunko)
	resp := c.send(protocol.TypeCreate, string(payload), tokenString)

	var created domain.Funko
	if resp.Status == protocol.StatusOK {
		if err := json.Unmarshal([]byte(resp.Content), &created); err != nil {
			log.Fatalf("🔴 Resposta de CREATE ilegível: %v", err)
		}
		fmt.Println("🟢 Funko criado com id:", created.ID)

		// 4. UPDATE
		created.Name = "Mi Funko 2 Actualizado"
		created.Price = 100.0
		payload, _ = json.Marshal(created)
		c.send(protocol.TypeUpdate, string(payload), tokenString)

		// 5. DELETE (com token USER deve falhar com insufficient permissions)
		c.send(protocol.TypeDelete, strconv.FormatInt(created.ID, 10), tokenString)
	}

	// 6. EXIT
	c.send(protocol.TypeExit, "", tokenString)
}

type client struct {
	out *json.Encoder
	in  *bufio.Reader
}

// login envia LOGIN e espera uma resposta TOKEN.
func (c *client) login(username, password string) (string, error) {
	loginJSON, _ := json.Marshal(protocol.Login{Username: username, Password: password})
	resp := c.send(protocol.TypeLogin, string(loginJSON), "")
	if resp.Status != protocol.StatusToken {
		return "", fmt.Errorf("status %s: %s", resp.Status, resp.Content)
	}
	return resp.Content, nil
}

// send escreve uma requisição e lê a resposta correspondente.
func (c *client) send(reqType protocol.RequestType, content, tokenString string) protocol.Response {
	req := protocol.Request{
		Type:      reqType,
		Content:   content,
		Token:     tokenString,
		CreatedAt: time.Now().Format(time.RFC3339),
	}

	fmt.Println("➡️ Petição enviada de tipo:", reqType)
	if err := c.out.Encode(req); err != nil {
		log.Fatalf("🔴 Falha ao enviar requisição: %v", err)
	}

	line, err := c.in.ReadString('\n')
	if err != nil {
		log.Fatalf("🔴 Falha ao ler resposta: %v", err)
	}

	var resp protocol.Response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		log.Fatalf("🔴 Resposta ilegível: %v", err)
	}

	if resp.Status == protocol.StatusError {
		fmt.Println("🔴 Error:", resp.Content)
	} else {
		fmt.Printf("🟢 %s: %s\n", resp.Status, resp.Content)
	}
	return resp
}

// dial abre a conexão TLS com o servidor (ou TCP puro quando TLS_ENABLED=false).
func dial(addr, caFile string) (net.Conn, error) {
	if envOr("TLS_ENABLED", "true") == "false" {
		return net.Dial("tcp", addr)
	}

	tlsCfg := &tls.Config{MinVersion: tls.VersionTLS13}
	if caFile != "" {
		caPEM, err := os.ReadFile(caFile)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caPEM) {
			return nil, fmt.Errorf("CA inválida em %s", caFile)
		}
		tlsCfg.RootCAs = pool
	} else {
		// Sem CA configurada assumimos certificado auto-assinado de
		// desenvolvimento.
		tlsCfg.InsecureSkipVerify = true
	}

	return tls.Dial("tcp", addr, tlsCfg)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

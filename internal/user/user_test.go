package user

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/apperror"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/database/dbtest"
	"github.com/mundo-dos-mangues/mangues-backend/internal/platform/middleware"
	"github.com/mundo-dos-mangues/mangues-backend/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	qNicknameTaken = regexp.QuoteMeta("SELECT id FROM usuarios WHERE LOWER(apelido) = LOWER($1) LIMIT 1")
	qInsert        = regexp.QuoteMeta("INSERT INTO usuarios (nome, apelido, senha, avatar) VALUES ($1, $2, $3, $4) RETURNING id")
	qFind          = regexp.QuoteMeta("SELECT * FROM usuarios WHERE LOWER(apelido) = LOWER($1) LIMIT 1")
	qVisit         = regexp.QuoteMeta("UPDATE usuarios SET ultimo_acesso = CURRENT_TIMESTAMP, visitas = visitas + 1 WHERE id = $1 RETURNING visitas")
	qUpdate        = regexp.QuoteMeta("UPDATE usuarios SET nome = $1, avatar = $2 WHERE id = $3")
	qProfileBase   = `SELECT id, nome, apelido, avatar, data_criacao, ultimo_acesso, total_pontos, visitas\s+FROM usuarios WHERE id = \$1`
)

type loginRecorder struct {
	userID int64
	visits int
	calls  int
}

func (r *loginRecorder) OnLogin(_ context.Context, userID int64, visits int) {
	r.userID, r.visits = userID, visits
	r.calls++
}

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *token.Issuer) {
	t.Helper()
	db, mock := dbtest.NewMock(t)
	issuer, err := token.NewIssuer("segredo-de-teste", time.Hour)
	require.NoError(t, err)
	svc, err := NewService(NewRepository(db), issuer, bcrypt.MinCost, zap.NewNop())
	require.NoError(t, err)
	return svc, mock, issuer
}

// expectProfile 预期一次完整资料读取的五条查询
func expectProfile(mock sqlmock.Sqlmock, id int64, apelido, avatar string, pontos, visitas int) {
	now := time.Now()
	mock.ExpectQuery(qProfileBase).WillReturnRows(
		sqlmock.NewRows([]string{"id", "nome", "apelido", "avatar", "data_criacao", "ultimo_acesso", "total_pontos", "visitas"}).
			AddRow(id, "Maria", apelido, avatar, now, now, pontos, visitas))
	mock.ExpectQuery(`SELECT c\.\* FROM conquistas c\s+JOIN usuario_conquistas uc ON c\.id = uc\.conquista_id\s+WHERE uc\.usuario_id = \$1 ORDER BY uc\.data_conquista DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "nome", "descricao", "icone", "pontos"}))
	mock.ExpectQuery(`SELECT especie_id FROM especies_visualizadas WHERE usuario_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"especie_id"}))
	mock.ExpectQuery(`SELECT ameaca_id FROM ameacas_visualizadas WHERE usuario_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"ameaca_id"}))
	mock.ExpectQuery(`SELECT ameaca_id, acao_index FROM acoes_ameacas WHERE usuario_id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"ameaca_id", "acao_index"}))
}

// kindOf 返回错误的分类；未分类的错误视为内部错误
func kindOf(err error) apperror.Kind {
	if appErr, ok := apperror.As(err); ok {
		return appErr.Kind
	}
	return apperror.KindInternal
}

func userRow(id int64, apelido, senha string, visitas int) *sqlmock.Rows {
	hash, _ := bcrypt.GenerateFromPassword([]byte(senha), bcrypt.MinCost)
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "nome", "apelido", "senha", "avatar", "data_criacao", "ultimo_acesso", "total_pontos", "visitas"}).
		AddRow(id, "Maria", apelido, string(hash), "🦀", now, now, 0, visitas)
}

func TestSignupCreatesUser(t *testing.T) {
	svc, mock, issuer := newTestService(t)
	mock.ExpectQuery(qNicknameTaken).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(qInsert).
		WithArgs("Maria", "Guara", sqlmock.AnyArg(), "🦀").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))
	expectProfile(mock, 12, "Guara", "🦀", 0, 0)

	res, err := svc.Signup(context.Background(), SignupInput{Nome: "  Maria ", Apelido: " Guara ", Senha: "1234"})
	require.NoError(t, err)
	assert.Equal(t, int64(12), res.Profile.ID)
	assert.Equal(t, DefaultAvatar, res.Profile.Avatar)
	assert.NotNil(t, res.Profile.Conquistas)
	assert.NotNil(t, res.Profile.Estatisticas.EspeciesVisualizadas)

	claims, err := issuer.Verify(res.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(12), claims.ID)
	assert.Equal(t, "Guara", claims.Apelido)
}

func TestSignupValidation(t *testing.T) {
	cases := []struct {
		name  string
		in    SignupInput
		label string
	}{
		{"missing name", SignupInput{Apelido: "a", Senha: "1234"}, labelSignupRequired},
		{"blank nickname", SignupInput{Nome: "n", Apelido: "   ", Senha: "1234"}, labelSignupRequired},
		{"missing password", SignupInput{Nome: "n", Apelido: "a"}, labelSignupRequired},
		{"short password", SignupInput{Nome: "n", Apelido: "a", Senha: "123"}, labelPasswordShort},
		{"avatar outside set", SignupInput{Nome: "n", Apelido: "a", Senha: "1234", Avatar: "🐍"}, labelAvatarInvalid},
		{"password over 72 bytes", SignupInput{Nome: "n", Apelido: "a", Senha: strings.Repeat("m", 80)}, labelPasswordLong},
		{"multibyte password over 72 bytes", SignupInput{Nome: "n", Apelido: "a", Senha: strings.Repeat("ç", 40)}, labelPasswordLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			_, err := svc.Signup(context.Background(), tc.in)

			appErr, ok := apperror.As(err)
			require.True(t, ok)
			assert.Equal(t, apperror.KindValidation, appErr.Kind)
			assert.Equal(t, tc.label, appErr.Label)
		})
	}
}

func TestSignupNicknameTakenAnyCase(t *testing.T) {
	svc, mock, _ := newTestService(t)
	mock.ExpectQuery(qNicknameTaken).WithArgs("GUARA").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	_, err := svc.Signup(context.Background(), SignupInput{Nome: "n", Apelido: "GUARA", Senha: "1234"})
	assert.Equal(t, apperror.KindConflict, kindOf(err))
}

func TestSignupUniqueIndexBackstop(t *testing.T) {
	svc, mock, _ := newTestService(t)
	mock.ExpectQuery(qNicknameTaken).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(qInsert).WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "usuarios_apelido_lower_idx"})

	_, err := svc.Signup(context.Background(), SignupInput{Nome: "n", Apelido: "guara", Senha: "1234"})
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.KindConflict, appErr.Kind)
	assert.Equal(t, labelNicknameTaken, appErr.Label)
}

func TestLoginIncrementsVisitsAndNotifiesObserver(t *testing.T) {
	svc, mock, _ := newTestService(t)
	observer := &loginRecorder{}
	svc.SetLoginObserver(observer)

	mock.ExpectQuery(qFind).WithArgs("guara").WillReturnRows(userRow(7, "Guara", "senha123", 4))
	mock.ExpectQuery(qVisit).WithArgs(int64(7)).WillReturnRows(sqlmock.NewRows([]string{"visitas"}).AddRow(5))
	expectProfile(mock, 7, "Guara", "🦀", 25, 5)

	res, err := svc.Login(context.Background(), LoginInput{Apelido: "guara", Senha: "senha123"})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Profile.Visitas)
	assert.Equal(t, 1, observer.calls)
	assert.Equal(t, int64(7), observer.userID)
	assert.Equal(t, 5, observer.visits)
}

func TestLoginFailuresShareLabel(t *testing.T) {
	t.Run("unknown nickname", func(t *testing.T) {
		svc, mock, _ := newTestService(t)
		mock.ExpectQuery(qFind).WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := svc.Login(context.Background(), LoginInput{Apelido: "ninguem", Senha: "x"})
		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, apperror.KindUnauthorized, appErr.Kind)
		assert.Equal(t, labelBadCredentials, appErr.Label)
	})
	t.Run("wrong password", func(t *testing.T) {
		svc, mock, _ := newTestService(t)
		mock.ExpectQuery(qFind).WillReturnRows(userRow(7, "Guara", "senha123", 4))

		_, err := svc.Login(context.Background(), LoginInput{Apelido: "guara", Senha: "errada"})
		appErr, ok := apperror.As(err)
		require.True(t, ok)
		assert.Equal(t, apperror.KindUnauthorized, appErr.Kind)
		assert.Equal(t, labelBadCredentials, appErr.Label)
	})
	t.Run("missing fields", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.Login(context.Background(), LoginInput{Apelido: "guara"})
		assert.Equal(t, apperror.KindValidation, kindOf(err))
	})
}

func TestProfileNotFound(t *testing.T) {
	svc, mock, _ := newTestService(t)
	mock.ExpectQuery(qProfileBase).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.Profile(context.Background(), 99)
	assert.Equal(t, apperror.KindNotFound, kindOf(err))
}

func TestProfileCollectsStatistics(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	now := time.Now()
	mock.ExpectQuery(qProfileBase).WillReturnRows(
		sqlmock.NewRows([]string{"id", "nome", "apelido", "avatar", "data_criacao", "ultimo_acesso", "total_pontos", "visitas"}).
			AddRow(3, "Ana", "ana", "🦩", now, now, 35, 6))
	mock.ExpectQuery(`FROM conquistas c`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "nome", "descricao", "icone", "pontos"}).
			AddRow("visitante_frequente", "Visitante Frequente", "d", "🏅", 25).
			AddRow("primeira_especie", "Primeiro Encontro", "d", "🔍", 10))
	mock.ExpectQuery(`FROM especies_visualizadas`).WillReturnRows(sqlmock.NewRows([]string{"especie_id"}).AddRow(1).AddRow(4))
	mock.ExpectQuery(`FROM ameacas_visualizadas`).WillReturnRows(sqlmock.NewRows([]string{"ameaca_id"}).AddRow(2))
	mock.ExpectQuery(`FROM acoes_ameacas`).WillReturnRows(sqlmock.NewRows([]string{"ameaca_id", "acao_index"}).AddRow(2, 0).AddRow(2, 3))

	p, err := NewRepository(db).Profile(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 35, p.TotalPontos)
	require.Len(t, p.Conquistas, 2)
	assert.Equal(t, "visitante_frequente", p.Conquistas[0].ID)
	assert.Equal(t, []int64{1, 4}, p.Estatisticas.EspeciesVisualizadas)
	assert.Equal(t, []int64{2}, p.Estatisticas.AmeacasVisualizadas)
	assert.Equal(t, []ThreatAction{{AmeacaID: 2, AcaoIndex: 0}, {AmeacaID: 2, AcaoIndex: 3}}, p.Estatisticas.AcoesAmeacas)
}

func TestUpdateProfile(t *testing.T) {
	t.Run("other user is forbidden", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.UpdateProfile(context.Background(), 1, 2, UpdateInput{Nome: "x", Avatar: "🦀"})
		assert.Equal(t, apperror.KindForbidden, kindOf(err))
	})
	t.Run("avatar must be in set", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		_, err := svc.UpdateProfile(context.Background(), 1, 1, UpdateInput{Nome: "x", Avatar: "🐍"})
		assert.Equal(t, apperror.KindValidation, kindOf(err))
	})
	t.Run("success returns refreshed profile", func(t *testing.T) {
		svc, mock, _ := newTestService(t)
		mock.ExpectExec(qUpdate).WithArgs("Nova", "🐙", int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
		expectProfile(mock, 1, "guara", "🐙", 0, 1)

		p, err := svc.UpdateProfile(context.Background(), 1, 1, UpdateInput{Nome: " Nova ", Avatar: "🐙"})
		require.NoError(t, err)
		assert.Equal(t, "🐙", p.Avatar)
	})
	t.Run("missing user", func(t *testing.T) {
		svc, mock, _ := newTestService(t)
		mock.ExpectExec(qUpdate).WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := svc.UpdateProfile(context.Background(), 1, 1, UpdateInput{Nome: "x", Avatar: "🦀"})
		assert.Equal(t, apperror.KindNotFound, kindOf(err))
	})
}

func TestAvatars(t *testing.T) {
	list := Avatars()
	assert.Len(t, list, 15)
	assert.Equal(t, DefaultAvatar, list[0])
	list[0] = "x"
	assert.Equal(t, DefaultAvatar, Avatars()[0])
}

// --- HTTP ---

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock, *token.Issuer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, mock, issuer := newTestService(t)
	h := NewHandler(svc)

	r := gin.New()
	r.Use(middleware.ErrorRenderer(true, zap.NewNop()))
	r.POST("/api/cadastro", h.Signup)
	r.POST("/api/login", h.Login)
	r.GET("/api/perfil/:id", h.GetProfile)
	r.PUT("/api/perfil/:id", RequireToken(issuer), h.UpdateProfile)
	r.GET("/api/avatars", h.Avatars)
	return r, mock, issuer
}

func do(r *gin.Engine, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestSignupHandler(t *testing.T) {
	r, mock, _ := newTestRouter(t)
	mock.ExpectQuery(qNicknameTaken).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(qInsert).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(5))
	expectProfile(mock, 5, "Garca", "🦢", 0, 0)

	rec := do(r, http.MethodPost, "/api/cadastro", `{"nome":"Maria","apelido":"Garca","senha":"1234","avatar":"🦢"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var body struct {
		Message string  `json:"message"`
		Token   string  `json:"token"`
		Usuario Profile `json:"usuario"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Conta criada com sucesso!", body.Message)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "Garca", body.Usuario.Apelido)
	assert.NotContains(t, rec.Body.String(), "senha")
}

func TestSignupHandlerAcceptsForm(t *testing.T) {
	r, mock, _ := newTestRouter(t)
	mock.ExpectQuery(qNicknameTaken).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	req := httptest.NewRequest(http.MethodPost, "/api/cadastro", strings.NewReader("nome=Maria&apelido=Garca&senha=1234"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"Este apelido já está em uso."}`, rec.Body.String())
}

func TestSignupPasswordAtBcryptLimit(t *testing.T) {
	svc, mock, _ := newTestService(t)
	mock.ExpectQuery(qNicknameTaken).WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(qInsert).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))
	expectProfile(mock, 8, "Socó", "🦀", 0, 0)

	_, err := svc.Signup(context.Background(), SignupInput{Nome: "n", Apelido: "Socó", Senha: strings.Repeat("m", 72)})
	require.NoError(t, err)
}

func TestSignupHandlerLongPassword(t *testing.T) {
	r, _, _ := newTestRouter(t)
	body := `{"nome":"Maria","apelido":"Garca","senha":"` + strings.Repeat("m", 80) + `"}`

	rec := do(r, http.MethodPost, "/api/cadastro", body, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Senha deve ter no máximo 72 bytes."}`, rec.Body.String())
}

func TestSignupHandlerMalformedBody(t *testing.T) {
	r, _, _ := newTestRouter(t)
	rec := do(r, http.MethodPost, "/api/cadastro", `{"nome":`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	r, mock, _ := newTestRouter(t)
	mock.ExpectQuery(qFind).WillReturnRows(userRow(7, "Guara", "senha123", 0))
	mock.ExpectQuery(qVisit).WillReturnRows(sqlmock.NewRows([]string{"visitas"}).AddRow(1))
	expectProfile(mock, 7, "Guara", "🦀", 0, 1)

	rec := do(r, http.MethodPost, "/api/login", `{"apelido":"guara","senha":"senha123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"Bem-vindo de volta, Guara!"`)
}

func TestLoginHandlerBadCredentials(t *testing.T) {
	r, mock, _ := newTestRouter(t)
	mock.ExpectQuery(qFind).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := do(r, http.MethodPost, "/api/login", `{"apelido":"x","senha":"y"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Apelido ou senha incorretos."}`, rec.Body.String())
}

func TestGetProfileHandler(t *testing.T) {
	r, mock, _ := newTestRouter(t)
	expectProfile(mock, 3, "ana", "🦩", 10, 2)

	rec := do(r, http.MethodGet, "/api/perfil/3", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"estatisticas":{"especies_visualizadas":[],"ameacas_visualizadas":[],"acoes_ameacas":[]}`)

	rec = do(r, http.MethodGet, "/api/perfil/abc", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Usuário não encontrado"}`, rec.Body.String())
}

func TestUpdateProfileHandlerAuth(t *testing.T) {
	r, _, issuer := newTestRouter(t)

	rec := do(r, http.MethodPut, "/api/perfil/1", `{"nome":"x","avatar":"🦀"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"Acesso negado. Token não fornecido."}`, rec.Body.String())

	rec = do(r, http.MethodPut, "/api/perfil/1", `{"nome":"x","avatar":"🦀"}`, "lixo")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Token inválido ou expirado."}`, rec.Body.String())

	other, err := issuer.Issue(2, "outro")
	require.NoError(t, err)
	rec = do(r, http.MethodPut, "/api/perfil/1", `{"nome":"x","avatar":"🦀"}`, other)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"Acesso negado."}`, rec.Body.String())

	rec = do(r, http.MethodPut, "/api/perfil/1", ``, other)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateProfileHandlerSuccess(t *testing.T) {
	r, mock, issuer := newTestRouter(t)
	mock.ExpectExec(qUpdate).WillReturnResult(sqlmock.NewResult(0, 1))
	expectProfile(mock, 1, "guara", "🐬", 0, 1)

	own, err := issuer.Issue(1, "guara")
	require.NoError(t, err)
	rec := do(r, http.MethodPut, "/api/perfil/1", `{"nome":"Maria","avatar":"🐬"}`, own)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message":"Perfil atualizado!"`)

	rec = do(r, http.MethodPut, "/api/perfil/1", `{"nome":"Maria","avatar":"🐍"}`, own)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Dados inválidos."}`, rec.Body.String())
}

func TestProfileHandlerInternalError(t *testing.T) {
	r, mock, _ := newTestRouter(t)
	mock.ExpectQuery(qProfileBase).WillReturnError(errors.New("connection reset"))

	rec := do(r, http.MethodGet, "/api/perfil/3", "", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Erro ao buscar perfil","message":"Erro interno"}`, rec.Body.String())
}

func TestAvatarsHandler(t *testing.T) {
	r, _, _ := newTestRouter(t)
	rec := do(r, http.MethodGet, "/api/avatars", "", "")

	var list []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, Avatars(), list)
}

package echoapi

import (
	"net/http"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func Test_login(t *testing.T) {
	app := setup(t)

	tests := []httpTest{
		{
			name:     "principal logs in",
			body:     marchallObj(t, LoginRequest{Role: RolePrincipal, Password: "principal-pwd"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "staff logs in",
			body:     marchallObj(t, LoginRequest{Role: RoleStaff, Password: "staff-pwd"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, LoginRequest{Role: RolePrincipal, Password: "nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "unknown role",
			body:     marchallObj(t, LoginRequest{Role: "janitor", Password: "staff-pwd"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/login", tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_login_bcryptHash(t *testing.T) {
	app := setup(t)
	hash, err := bcrypt.GenerateFromPassword([]byte("letmein"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt.GenerateFromPassword() failed: %v", err)
	}
	app.conf.PrincipalPassword = string(hash)
	app.conf.StaffPassword = ""

	tests := []httpTest{
		{
			name:     "hashed password accepted",
			body:     marchallObj(t, LoginRequest{Role: RolePrincipal, Password: "letmein"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "hashed password rejected",
			body:     marchallObj(t, LoginRequest{Role: RolePrincipal, Password: "letmeout"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unset role password never matches",
			body:     marchallObj(t, LoginRequest{Role: RoleStaff, Password: ""}),
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/login", tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_principalOnlyEndpoints(t *testing.T) {
	app := setup(t)
	staffToken := app.getToken(t, RoleStaff)

	tests := []httpTest{
		{name: "no token", method: http.MethodPut, path: "/v1/schedule/base", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "staff cannot edit base", method: http.MethodPut, path: "/v1/schedule/base", token: staffToken, wantCode: http.StatusForbidden},
		{name: "staff cannot edit overrides", method: http.MethodPut, path: "/v1/schedule/overrides", token: staffToken, wantCode: http.StatusForbidden},
		{name: "staff cannot start substitutions", method: http.MethodPost, path: "/v1/substitutions", token: staffToken, wantCode: http.StatusForbidden},
		{name: "staff cannot suggest", method: http.MethodPost, path: "/v1/schedule/suggest", token: staffToken, wantCode: http.StatusForbidden},
		{name: "staff cannot create classes", method: http.MethodPost, path: "/v1/classes", token: staffToken, wantCode: http.StatusForbidden},
		{name: "staff cannot delete teachers", method: http.MethodDelete, path: "/v1/teachers/T1", token: staffToken, wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

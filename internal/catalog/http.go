package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"MiniShop/pkg/kit"
)

type Server struct {
	Store Store
	Log   *zap.Logger
}

// Routes serves the product endpoints relative to their /products mount.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Post("/lookup", s.lookup)
	r.Get("/{id}", s.get)

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.ListSortedByID(r.Context())
	if err != nil {
		s.Log.Error("list products failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok := s.find(w, r, id)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

type lookupReq struct {
	ProductID productRef `json:"product_id"`
}

// productRef accepts a product id sent either as a JSON string or as an
// integer, which is how older mobile clients send it.
type productRef string

func (p *productRef) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = productRef(s)
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil {
		return err
	}
	if _, err := n.Int64(); err != nil {
		return errors.New("product_id must be a string or an integer")
	}
	*p = productRef(n.String())
	return nil
}

type productInfo struct {
	Name        string `json:"product_name"`
	PriceCents  int64  `json:"product_price"`
	Description string `json:"product_description"`
}

type lookupResp struct {
	Result  int         `json:"result"`
	Product productInfo `json:"product"`
}

// lookup serves the body-addressed product query used by the mobile client.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) {
	var req lookupReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return
	}
	id := strings.TrimSpace(string(req.ProductID))
	if id == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "product_id required", nil)
		return
	}

	p, ok := s.find(w, r, id)
	if !ok {
		return
	}
	kit.WriteJSON(w, http.StatusOK, lookupResp{
		Result: 1,
		Product: productInfo{
			Name:        p.Title,
			PriceCents:  p.PriceCents,
			Description: p.Description,
		},
	})
}

func (s *Server) find(w http.ResponseWriter, r *http.Request, id string) (Product, bool) {
	p, ok, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.Log.Error("get product failed", zap.Error(err), zap.String("id", id))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return Product{}, false
	}
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return Product{}, false
	}
	return p, true
}

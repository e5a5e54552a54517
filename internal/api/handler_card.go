package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/go-cardsheet/internal/dataset"
	"github.com/ryanbastic/go-cardsheet/internal/sheet"
	"github.com/ryanbastic/go-cardsheet/internal/workspace"
)

// --- Huma Input/Output types ---

type CardResponse struct {
	SheetID   string              `json:"sheet_id" doc:"Sheet ID"`
	Layer     string              `json:"layer" doc:"Layer name"`
	X         int                 `json:"x" doc:"Column on the sheet grid"`
	Y         int                 `json:"y" doc:"Row on the sheet grid; grows downward"`
	DataSetID string              `json:"dataset_id" doc:"Dataset (card kind) of the backing row"`
	RowID     string              `json:"row_id" doc:"Row ID"`
	Values    []dataset.DataValue `json:"values" doc:"Cells of the backing row, in column order"`
}

type CreateCardBody struct {
	Kind  string `json:"kind" doc:"Card kind (dataset ID)" required:"true" minLength:"1" example:"note"`
	RowID string `json:"row_id,omitempty" doc:"Row ID; generated when empty"`
	Args  string `json:"args,omitempty" doc:"Kind-specific initial value"`
	X     int    `json:"x" doc:"Column on the sheet grid" minimum:"-2147483648" maximum:"2147483647"`
	Y     int    `json:"y" doc:"Row on the sheet grid" minimum:"-2147483648" maximum:"2147483647"`
}

type CreateCardInput struct {
	SheetID string `path:"sheet_id" doc:"Sheet ID"`
	Layer   string `path:"layer" doc:"Layer name"`
	Body    CreateCardBody
}

type CardOutput struct {
	Body CardResponse
}

type ListCardsInput struct {
	SheetID string `path:"sheet_id" doc:"Sheet ID"`
	Layer   string `path:"layer" doc:"Layer name"`
}

type ListCardsOutput struct {
	Body []CardResponse
}

type CardPathInput struct {
	SheetID string `path:"sheet_id" doc:"Sheet ID"`
	Layer   string `path:"layer" doc:"Layer name"`
	RowID   string `path:"row_id" doc:"Row ID"`
}

type MoveCardInput struct {
	SheetID string `path:"sheet_id" doc:"Sheet ID"`
	Layer   string `path:"layer" doc:"Layer name"`
	RowID   string `path:"row_id" doc:"Row ID"`
	Body    struct {
		X int `json:"x" doc:"Target column" minimum:"-2147483648" maximum:"2147483647"`
		Y int `json:"y" doc:"Target row" minimum:"-2147483648" maximum:"2147483647"`
	}
}

// --- Handler ---

type CardHandler struct {
	svc    *workspace.Service
	logger *slog.Logger
}

func NewCardHandler(svc *workspace.Service, logger *slog.Logger) *CardHandler {
	return &CardHandler{svc: svc, logger: logger}
}

func registerCardRoutes(api huma.API, h *CardHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-card",
		Method:        http.MethodPost,
		Path:          "/v1/sheets/{sheet_id}/layers/{layer}/cards",
		Summary:       "Create a card",
		Description:   "Asks the actor for the kind to produce a row and places it on the layer.",
		Tags:          []string{"cards"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateCard)

	huma.Register(api, huma.Operation{
		OperationID: "list-cards",
		Method:      http.MethodGet,
		Path:        "/v1/sheets/{sheet_id}/layers/{layer}/cards",
		Summary:     "List the cards of a layer",
		Tags:        []string{"cards"},
	}, h.ListCards)

	huma.Register(api, huma.Operation{
		OperationID: "get-card",
		Method:      http.MethodGet,
		Path:        "/v1/sheets/{sheet_id}/layers/{layer}/cards/{row_id}",
		Summary:     "Get a card",
		Tags:        []string{"cards"},
	}, h.GetCard)

	huma.Register(api, huma.Operation{
		OperationID:   "remove-card",
		Method:        http.MethodDelete,
		Path:          "/v1/sheets/{sheet_id}/layers/{layer}/cards/{row_id}",
		Summary:       "Remove a card and its row",
		Tags:          []string{"cards"},
		DefaultStatus: http.StatusNoContent,
	}, h.RemoveCard)

	huma.Register(api, huma.Operation{
		OperationID: "move-card",
		Method:      http.MethodPut,
		Path:        "/v1/sheets/{sheet_id}/layers/{layer}/cards/{row_id}/position",
		Summary:     "Move a card",
		Tags:        []string{"cards"},
	}, h.MoveCard)
}

func (h *CardHandler) CreateCard(ctx context.Context, input *CreateCardInput) (*CardOutput, error) {
	b := input.Body
	card, err := h.svc.CreateCard(ctx, input.SheetID, input.Layer, b.Kind, b.RowID, b.Args, sheet.Position{X: b.X, Y: b.Y})
	if err != nil {
		return nil, toHTTPError(h.logger, "create card", err)
	}
	return &CardOutput{Body: cardToResponse(card)}, nil
}

func (h *CardHandler) ListCards(ctx context.Context, input *ListCardsInput) (*ListCardsOutput, error) {
	cards, err := h.svc.Cards(input.SheetID, input.Layer)
	if err != nil {
		return nil, toHTTPError(h.logger, "list cards", err)
	}
	resp := make([]CardResponse, len(cards))
	for i := range cards {
		resp[i] = cardToResponse(&cards[i])
	}
	return &ListCardsOutput{Body: resp}, nil
}

func (h *CardHandler) GetCard(ctx context.Context, input *CardPathInput) (*CardOutput, error) {
	card, err := h.svc.Card(input.SheetID, input.Layer, input.RowID)
	if err != nil {
		return nil, toHTTPError(h.logger, "get card", err)
	}
	return &CardOutput{Body: cardToResponse(card)}, nil
}

func (h *CardHandler) RemoveCard(ctx context.Context, input *CardPathInput) (*struct{}, error) {
	if _, err := h.svc.RemoveCard(ctx, input.SheetID, input.Layer, input.RowID); err != nil {
		return nil, toHTTPError(h.logger, "remove card", err)
	}
	return nil, nil
}

func (h *CardHandler) MoveCard(ctx context.Context, input *MoveCardInput) (*CardOutput, error) {
	to := sheet.Position{X: input.Body.X, Y: input.Body.Y}
	card, err := h.svc.MoveCard(ctx, input.SheetID, input.Layer, input.RowID, to)
	if err != nil {
		return nil, toHTTPError(h.logger, "move card", err)
	}
	return &CardOutput{Body: cardToResponse(card)}, nil
}

func cardToResponse(c *workspace.Card) CardResponse {
	resp := CardResponse{
		SheetID: c.SheetID,
		Layer:   c.Layer,
		X:       c.Position.X,
		Y:       c.Position.Y,
		Values:  []dataset.DataValue{},
	}
	if c.Entry != nil {
		resp.DataSetID = c.Entry.ActorID
		resp.RowID = c.Entry.RowID
		resp.Values = c.Entry.Values
	}
	return resp
}

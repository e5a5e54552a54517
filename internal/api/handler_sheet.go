package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/go-cardsheet/internal/workspace"
)

// --- Huma Input/Output types ---

type CreateSheetBody struct {
	ID     string   `json:"id" doc:"Sheet ID" required:"true" minLength:"1"`
	Name   string   `json:"name,omitempty" doc:"Display name"`
	Layers []string `json:"layers,omitempty" doc:"Layers to create, in order; the first becomes current"`
}

type CreateSheetInput struct {
	Body CreateSheetBody
}

type SheetOutput struct {
	Body workspace.SheetInfo
}

type ListSheetsInput struct{}

type ListSheetsOutput struct {
	Body []workspace.SheetInfo
}

type GetSheetInput struct {
	SheetID string `path:"sheet_id" doc:"Sheet ID"`
}

type AddLayerInput struct {
	SheetID string `path:"sheet_id" doc:"Sheet ID"`
	Body    struct {
		Name string `json:"name" doc:"Layer name" required:"true" minLength:"1"`
	}
}

type SetCurrentInput struct {
	Body struct {
		SheetID string `json:"sheet_id" doc:"Sheet to make current" required:"true" minLength:"1"`
		Layer   string `json:"layer,omitempty" doc:"Layer to make current on that sheet"`
	}
}

// --- Handler ---

type SheetHandler struct {
	svc    *workspace.Service
	logger *slog.Logger
}

func NewSheetHandler(svc *workspace.Service, logger *slog.Logger) *SheetHandler {
	return &SheetHandler{svc: svc, logger: logger}
}

func registerSheetRoutes(api huma.API, h *SheetHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-sheet",
		Method:        http.MethodPost,
		Path:          "/v1/sheets",
		Summary:       "Create a sheet",
		Tags:          []string{"sheets"},
		DefaultStatus: http.StatusCreated,
	}, h.CreateSheet)

	huma.Register(api, huma.Operation{
		OperationID: "list-sheets",
		Method:      http.MethodGet,
		Path:        "/v1/sheets",
		Summary:     "List sheets",
		Tags:        []string{"sheets"},
	}, h.ListSheets)

	huma.Register(api, huma.Operation{
		OperationID: "get-sheet",
		Method:      http.MethodGet,
		Path:        "/v1/sheets/{sheet_id}",
		Summary:     "Get a sheet",
		Tags:        []string{"sheets"},
	}, h.GetSheet)

	huma.Register(api, huma.Operation{
		OperationID:   "add-layer",
		Method:        http.MethodPost,
		Path:          "/v1/sheets/{sheet_id}/layers",
		Summary:       "Add a layer to a sheet",
		Tags:          []string{"sheets"},
		DefaultStatus: http.StatusCreated,
	}, h.AddLayer)

	huma.Register(api, huma.Operation{
		OperationID: "set-current-sheet",
		Method:      http.MethodPut,
		Path:        "/v1/current",
		Summary:     "Select the current sheet and layer",
		Tags:        []string{"sheets"},
	}, h.SetCurrent)
}

func (h *SheetHandler) CreateSheet(ctx context.Context, input *CreateSheetInput) (*SheetOutput, error) {
	name := input.Body.Name
	if name == "" {
		name = input.Body.ID
	}
	info, err := h.svc.CreateSheet(input.Body.ID, name, input.Body.Layers)
	if err != nil {
		return nil, toHTTPError(h.logger, "create sheet", err)
	}
	return &SheetOutput{Body: *info}, nil
}

func (h *SheetHandler) ListSheets(ctx context.Context, input *ListSheetsInput) (*ListSheetsOutput, error) {
	sheets := h.svc.Sheets()
	if sheets == nil {
		sheets = []workspace.SheetInfo{}
	}
	return &ListSheetsOutput{Body: sheets}, nil
}

func (h *SheetHandler) GetSheet(ctx context.Context, input *GetSheetInput) (*SheetOutput, error) {
	info, err := h.svc.Sheet(input.SheetID)
	if err != nil {
		return nil, toHTTPError(h.logger, "get sheet", err)
	}
	return &SheetOutput{Body: *info}, nil
}

func (h *SheetHandler) AddLayer(ctx context.Context, input *AddLayerInput) (*SheetOutput, error) {
	info, err := h.svc.AddLayer(input.SheetID, input.Body.Name)
	if err != nil {
		return nil, toHTTPError(h.logger, "add layer", err)
	}
	return &SheetOutput{Body: *info}, nil
}

func (h *SheetHandler) SetCurrent(ctx context.Context, input *SetCurrentInput) (*SheetOutput, error) {
	if err := h.svc.SetCurrent(input.Body.SheetID, input.Body.Layer); err != nil {
		return nil, toHTTPError(h.logger, "set current sheet", err)
	}
	info, err := h.svc.Sheet(input.Body.SheetID)
	if err != nil {
		return nil, toHTTPError(h.logger, "get sheet", err)
	}
	return &SheetOutput{Body: *info}, nil
}

package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/go-cardsheet/internal/actor"
	"github.com/ryanbastic/go-cardsheet/internal/dataset"
	"github.com/ryanbastic/go-cardsheet/internal/view"
	"github.com/ryanbastic/go-cardsheet/internal/workspace"
)

// --- Huma Input/Output types ---

type ActorResponse struct {
	Kind        string               `json:"kind" doc:"Dataset ID of the card kind"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Path        string               `json:"path" doc:"Storage path of the kind's dataset"`
	Columns     []dataset.ColumnInfo `json:"columns"`
}

type ListActorsInput struct{}

type ListActorsOutput struct {
	Body []ActorResponse
}

type ActorKindInput struct {
	Kind string `path:"kind" doc:"Card kind (dataset ID)"`
}

type ActorViewOutput struct {
	Body json.RawMessage `doc:"Card template elements, each tagged with its kind"`
}

type ActorDefaultsOutput struct {
	Body []dataset.DataValue
}

type DataSetResponse struct {
	ID      string               `json:"id"`
	Path    string               `json:"path"`
	Columns []dataset.ColumnInfo `json:"columns"`
	Entries []*dataset.DataEntry `json:"entries"`
}

type GetDataSetInput struct {
	DataSetID string `path:"dataset_id" doc:"Dataset ID"`
}

type GetDataSetOutput struct {
	Body DataSetResponse
}

// --- Handler ---

type ActorHandler struct {
	svc    *workspace.Service
	logger *slog.Logger
}

func NewActorHandler(svc *workspace.Service, logger *slog.Logger) *ActorHandler {
	return &ActorHandler{svc: svc, logger: logger}
}

func registerActorRoutes(api huma.API, h *ActorHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-actors",
		Method:      http.MethodGet,
		Path:        "/v1/actors",
		Summary:     "List card kinds",
		Tags:        []string{"actors"},
	}, h.ListActors)

	huma.Register(api, huma.Operation{
		OperationID: "get-actor-view",
		Method:      http.MethodGet,
		Path:        "/v1/actors/{kind}/view",
		Summary:     "Get the card template of a kind",
		Tags:        []string{"actors"},
	}, h.GetView)

	huma.Register(api, huma.Operation{
		OperationID: "get-actor-defaults",
		Method:      http.MethodGet,
		Path:        "/v1/actors/{kind}/defaults",
		Summary:     "Get the default cells of a new row",
		Tags:        []string{"actors"},
	}, h.GetDefaults)

	huma.Register(api, huma.Operation{
		OperationID: "get-dataset",
		Method:      http.MethodGet,
		Path:        "/v1/datasets/{dataset_id}",
		Summary:     "Get the rows of a dataset",
		Tags:        []string{"datasets"},
	}, h.GetDataSet)
}

func (h *ActorHandler) ListActors(ctx context.Context, input *ListActorsInput) (*ListActorsOutput, error) {
	actors := h.svc.Actors()
	resp := make([]ActorResponse, len(actors))
	for i, a := range actors {
		resp[i] = actorToResponse(a)
	}
	return &ListActorsOutput{Body: resp}, nil
}

func (h *ActorHandler) GetView(ctx context.Context, input *ActorKindInput) (*ActorViewOutput, error) {
	a, err := h.svc.Actor(input.Kind)
	if err != nil {
		return nil, toHTTPError(h.logger, "get view", err)
	}
	data, err := view.Marshal(a.GetElementViewData())
	if err != nil {
		return nil, toHTTPError(h.logger, "get view", err)
	}
	return &ActorViewOutput{Body: data}, nil
}

func (h *ActorHandler) GetDefaults(ctx context.Context, input *ActorKindInput) (*ActorDefaultsOutput, error) {
	a, err := h.svc.Actor(input.Kind)
	if err != nil {
		return nil, toHTTPError(h.logger, "get defaults", err)
	}
	return &ActorDefaultsOutput{Body: a.GetDefaultDataValues("")}, nil
}

func (h *ActorHandler) GetDataSet(ctx context.Context, input *GetDataSetInput) (*GetDataSetOutput, error) {
	set, err := h.svc.DataSet(input.DataSetID)
	if err != nil {
		return nil, toHTTPError(h.logger, "get dataset", err)
	}
	entries, err := h.svc.Rows(set.ID)
	if err != nil {
		return nil, toHTTPError(h.logger, "get dataset", err)
	}
	return &GetDataSetOutput{Body: DataSetResponse{
		ID:      set.ID,
		Path:    set.Path,
		Columns: set.Columns(),
		Entries: entries,
	}}, nil
}

func actorToResponse(a *actor.Base) ActorResponse {
	return ActorResponse{
		Kind:        a.GetDataSetID(),
		Name:        a.Name(),
		Description: a.Description(),
		Path:        a.Path(),
		Columns:     a.Columns(),
	}
}

package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/danielgtaylor/huma/v2"

	"github.com/ryanbastic/go-cardsheet/internal/cluster"
	"github.com/ryanbastic/go-cardsheet/internal/sheet"
	"github.com/ryanbastic/go-cardsheet/internal/workspace"
)

// --- Huma Input/Output types ---

type LayerPathInput struct {
	SheetID string `path:"sheet_id" doc:"Sheet ID"`
	Layer   string `path:"layer" doc:"Layer name"`
}

type ListClustersOutput struct {
	Body []cluster.Cluster
}

type CardClusterInput struct {
	SheetID string `path:"sheet_id" doc:"Sheet ID"`
	Layer   string `path:"layer" doc:"Layer name"`
	X       int    `path:"x" doc:"Column of the seed card" minimum:"-2147483648" maximum:"2147483647"`
	Y       int    `path:"y" doc:"Row of the seed card" minimum:"-2147483648" maximum:"2147483647"`
}

type CardClusterOutput struct {
	Body []sheet.Placement
}

type BoundingBoxesInput struct {
	SheetID string `path:"sheet_id" doc:"Sheet ID"`
	Layer   string `path:"layer" doc:"Layer name"`
	Padding int    `query:"padding" default:"-1" minimum:"-1" maximum:"2147483647" doc:"Cells of padding on every side; -1 uses the server default"`
}

type BoundingBoxResponse struct {
	Key         sheet.Position `json:"key" doc:"Topmost, then leftmost, member position"`
	TopLeft     sheet.Position `json:"top_left"`
	BottomRight sheet.Position `json:"bottom_right"`
}

type BoundingBoxesOutput struct {
	Body []BoundingBoxResponse
}

type ClusterBoardInput struct{}

type ClusterBoardOutput struct {
	Body []cluster.LayerClusters
}

// --- Handler ---

type ClusterHandler struct {
	svc    *workspace.Service
	logger *slog.Logger
}

func NewClusterHandler(svc *workspace.Service, logger *slog.Logger) *ClusterHandler {
	return &ClusterHandler{svc: svc, logger: logger}
}

func registerClusterRoutes(api huma.API, h *ClusterHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-clusters",
		Method:      http.MethodGet,
		Path:        "/v1/sheets/{sheet_id}/layers/{layer}/clusters",
		Summary:     "Partition a layer into clusters",
		Tags:        []string{"clusters"},
	}, h.ListClusters)

	huma.Register(api, huma.Operation{
		OperationID: "get-card-cluster",
		Method:      http.MethodGet,
		Path:        "/v1/sheets/{sheet_id}/layers/{layer}/clusters/{x}/{y}",
		Summary:     "Get the cluster containing a card",
		Description: "Members are returned in traversal order starting from the seed.",
		Tags:        []string{"clusters"},
	}, h.CardCluster)

	huma.Register(api, huma.Operation{
		OperationID: "get-bounding-boxes",
		Method:      http.MethodGet,
		Path:        "/v1/sheets/{sheet_id}/layers/{layer}/bounding-boxes",
		Summary:     "Get padded cluster bounding boxes",
		Tags:        []string{"clusters"},
	}, h.BoundingBoxes)

	huma.Register(api, huma.Operation{
		OperationID: "cluster-board",
		Method:      http.MethodGet,
		Path:        "/v1/clusters",
		Summary:     "Partition every layer of every sheet",
		Tags:        []string{"clusters"},
	}, h.ClusterBoard)
}

func (h *ClusterHandler) ListClusters(ctx context.Context, input *LayerPathInput) (*ListClustersOutput, error) {
	clusters, err := h.svc.Clusters(input.SheetID, input.Layer)
	if err != nil {
		return nil, toHTTPError(h.logger, "list clusters", err)
	}
	return &ListClustersOutput{Body: clusters}, nil
}

func (h *ClusterHandler) CardCluster(ctx context.Context, input *CardClusterInput) (*CardClusterOutput, error) {
	seed := sheet.Position{X: input.X, Y: input.Y}
	members, err := h.svc.CardCluster(input.SheetID, input.Layer, seed)
	if err != nil {
		return nil, toHTTPError(h.logger, "card cluster", err)
	}
	return &CardClusterOutput{Body: members}, nil
}

func (h *ClusterHandler) BoundingBoxes(ctx context.Context, input *BoundingBoxesInput) (*BoundingBoxesOutput, error) {
	boxes, err := h.svc.BoundingBoxes(input.SheetID, input.Layer, input.Padding)
	if err != nil {
		return nil, toHTTPError(h.logger, "bounding boxes", err)
	}
	resp := make([]BoundingBoxResponse, 0, len(boxes))
	for key, box := range boxes {
		resp = append(resp, BoundingBoxResponse{Key: key, TopLeft: box.TopLeft, BottomRight: box.BottomRight})
	}
	sort.Slice(resp, func(i, j int) bool { return resp[i].Key.Less(resp[j].Key) })
	return &BoundingBoxesOutput{Body: resp}, nil
}

func (h *ClusterHandler) ClusterBoard(ctx context.Context, input *ClusterBoardInput) (*ClusterBoardOutput, error) {
	all, err := h.svc.ClusterBoard(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, huma.Error503ServiceUnavailable("cluster board cancelled")
		}
		return nil, toHTTPError(h.logger, "cluster board", err)
	}
	return &ClusterBoardOutput{Body: all}, nil
}

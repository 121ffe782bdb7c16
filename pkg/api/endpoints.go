package api

import (
	"context"
	"fmt"

	"github.com/hazyhaar/energle/pkg/dataset"
	"github.com/hazyhaar/energle/pkg/game"
	"github.com/hazyhaar/energle/pkg/kit"
	"github.com/hazyhaar/energle/pkg/score"
)

// Shared request/response types used by both HTTP and MCP transports.

type datasetResponse struct {
	dataset.View
	Profiles int              `json:"profiles"`
	Families []dataset.Family `json:"families"`
	Strategy score.Strategy   `json:"strategy"`
}

type setYearReq struct {
	Year    int
	Economy string
}

type switchFamilyReq struct {
	Family string
}

type roundReq struct {
	Key      string
	Practice bool
}

type guessReq struct {
	Key   string
	Input string
}

type guessResponse struct {
	Key   string      `json:"key"`
	Guess score.Guess `json:"guess"`
}

type guessesReq struct {
	Key string
}

type guessesResponse struct {
	Key     string        `json:"key"`
	Guesses []score.Guess `json:"guesses"`
}

type suggestionsReq struct {
	Query string
	Limit int
}

type suggestionsResponse struct {
	Suggestions []game.Suggestion `json:"suggestions"`
}

// maxSuggestions caps one suggestions page.
const maxSuggestions = 50

// endpoints holds every game action as a kit.Endpoint.
type endpoints struct {
	datasetInfo  kit.Endpoint
	setYear      kit.Endpoint
	switchFamily kit.Endpoint
	round        kit.Endpoint
	guess        kit.Endpoint
	guesses      kit.Endpoint
	suggestions  kit.Endpoint
}

func newEndpoints(svc *game.Service, mw func(name string) kit.Middleware) endpoints {
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		if mw == nil {
			return ep
		}
		return mw(name)(ep)
	}
	return endpoints{
		datasetInfo:  wrap("dataset_info", datasetInfoEndpoint(svc)),
		setYear:      wrap("set_year", setYearEndpoint(svc)),
		switchFamily: wrap("switch_family", switchFamilyEndpoint(svc)),
		round:        wrap("round", roundEndpoint(svc)),
		guess:        wrap("submit_guess", guessEndpoint(svc)),
		guesses:      wrap("list_guesses", guessesEndpoint(svc)),
		suggestions:  wrap("suggestions", suggestionsEndpoint(svc)),
	}
}

func datasetInfoEndpoint(svc *game.Service) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return describe(svc, svc.Dataset()), nil
	}
}

func describe(svc *game.Service, v dataset.View) datasetResponse {
	return datasetResponse{View: v, Profiles: len(v.Dataset.Profiles), Families: svc.Families(), Strategy: svc.Strategy()}
}

func setYearEndpoint(svc *game.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*setYearReq)
		if req.Year <= 0 {
			return nil, fmt.Errorf("year must be positive, got %d", req.Year)
		}
		v := svc.SetYear(ctx, req.Year, req.Economy)
		return describe(svc, v), nil
	}
}

func switchFamilyEndpoint(svc *game.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*switchFamilyReq)
		v, err := svc.SwitchFamily(ctx, req.Family)
		if err != nil {
			return nil, err
		}
		return describe(svc, v), nil
	}
}

func roundEndpoint(svc *game.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*roundReq)
		key := req.Key
		if req.Practice && key == "" {
			key = svc.NewPractice()
		}
		return svc.Round(ctx, key)
	}
}

func guessEndpoint(svc *game.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*guessReq)
		if req.Input == "" {
			return nil, fmt.Errorf("guess is empty")
		}
		key := req.Key
		if key == "" {
			key = svc.Today()
		}
		g, err := svc.Guess(ctx, key, req.Input)
		if err != nil {
			return nil, err
		}
		return guessResponse{Key: key, Guess: g}, nil
	}
}

func guessesEndpoint(svc *game.Service) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*guessesReq)
		key := req.Key
		if key == "" {
			key = svc.Today()
		}
		gs, err := svc.Guesses(ctx, key)
		if err != nil {
			return nil, err
		}
		return guessesResponse{Key: key, Guesses: gs}, nil
	}
}

func suggestionsEndpoint(svc *game.Service) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*suggestionsReq)
		limit := req.Limit
		if limit <= 0 || limit > maxSuggestions {
			limit = maxSuggestions
		}
		return suggestionsResponse{Suggestions: svc.Suggestions(req.Query, limit)}, nil
	}
}

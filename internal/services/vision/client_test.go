package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"

	"wildlens/internal/services"
)

func testJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test image: %v", err)
	}
	return buf.Bytes()
}

func TestAnnotateBuildsBundle(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("key") != "vision-key" {
			t.Errorf("missing api key in query: %s", r.URL.RawQuery)
		}
		var req annotateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if calls == 1 {
			json.NewEncoder(w).Encode(annotateResponse{Responses: []annotation{{
				LabelAnnotations: []labelAnnotation{
					{Description: "Bird", Score: 0.93},
					{Description: "Beak", Score: 0.81},
				},
				WebDetection: &webDetection{
					BestGuessLabels: []struct {
						Label string `json:"label"`
					}{{Label: "northern cardinal"}},
					PagesWithMatchingImages: []struct {
						PageTitle string `json:"pageTitle"`
					}{{PageTitle: "Cardinalis cardinalis - Wikipedia"}},
				},
				SafeSearch: &safeSearch{Adult: "VERY_UNLIKELY", Violence: "UNLIKELY", Racy: "VERY_UNLIKELY", Medical: "UNLIKELY"},
				CropHints: &cropHints{CropHints: []struct {
					BoundingPoly struct {
						Vertices []vertex `json:"vertices"`
					} `json:"boundingPoly"`
				}{{BoundingPoly: struct {
					Vertices []vertex `json:"vertices"`
				}{Vertices: []vertex{{X: 10, Y: 10}, {X: 60, Y: 10}, {X: 60, Y: 60}, {X: 10, Y: 60}}}}}},
			}}})
			return
		}
		if len(req.Requests) != 1 || len(req.Requests[0].Features) != 1 {
			t.Errorf("crop pass should request labels only, got %+v", req.Requests)
		}
		json.NewEncoder(w).Encode(annotateResponse{Responses: []annotation{{
			LabelAnnotations: []labelAnnotation{{Description: "Cardinal", Score: 0.9}},
		}}})
	}))
	defer server.Close()

	client, err := New("vision-key", server.URL, 10, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	bundle, err := client.Annotate(context.Background(), testJPEG(t, 200, 200))
	if err != nil {
		t.Fatalf("Annotate returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 annotate calls, got %d", calls)
	}
	if len(bundle.Labels) != 2 || bundle.Labels[0].Desc != "Bird" {
		t.Fatalf("unexpected labels: %+v", bundle.Labels)
	}
	if len(bundle.WebBestGuess) != 1 || bundle.WebBestGuess[0] != "northern cardinal" {
		t.Fatalf("unexpected web guesses: %+v", bundle.WebBestGuess)
	}
	if len(bundle.CropLabels) != 1 || bundle.CropLabels[0].Desc != "Cardinal" {
		t.Fatalf("unexpected crop labels: %+v", bundle.CropLabels)
	}
	if bundle.Safe.Adult != "VERY_UNLIKELY" {
		t.Fatalf("unexpected safe flags: %+v", bundle.Safe)
	}
}

func TestAnnotateCropFailureDegrades(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			json.NewEncoder(w).Encode(annotateResponse{Responses: []annotation{{
				LabelAnnotations: []labelAnnotation{{Description: "Flower", Score: 0.9}},
				CropHints: &cropHints{CropHints: []struct {
					BoundingPoly struct {
						Vertices []vertex `json:"vertices"`
					} `json:"boundingPoly"`
				}{{BoundingPoly: struct {
					Vertices []vertex `json:"vertices"`
				}{Vertices: []vertex{{X: 0, Y: 0}, {X: 50, Y: 0}, {X: 50, Y: 50}, {X: 0, Y: 50}}}}}},
			}}})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := New("vision-key", server.URL, 10, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	bundle, err := client.Annotate(context.Background(), testJPEG(t, 200, 200))
	if err != nil {
		t.Fatalf("primary pass should survive crop failure: %v", err)
	}
	if len(bundle.CropLabels) != 0 {
		t.Fatalf("expected empty crop labels, got %+v", bundle.CropLabels)
	}
}

func TestAnnotateQuotaExceeded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, err := New("vision-key", server.URL, 10, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Annotate(context.Background(), testJPEG(t, 32, 32))
	if !errors.Is(err, services.ErrQuotaExceeded) {
		t.Fatalf("expected quota marker, got %v", err)
	}
}

func TestAnnotateServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New("vision-key", server.URL, 10, WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Annotate(context.Background(), testJPEG(t, 32, 32))
	if !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable marker, got %v", err)
	}
}

func TestAnnotateRejectsEmptyImage(t *testing.T) {
	client, err := New("vision-key", "http://localhost:0", 10)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.Annotate(context.Background(), nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation marker, got %v", err)
	}
}

func TestDominantCrop(t *testing.T) {
	if _, ok := dominantCrop(nil); ok {
		t.Fatal("nil hints should not yield a region")
	}
	hints := &cropHints{CropHints: []struct {
		BoundingPoly struct {
			Vertices []vertex `json:"vertices"`
		} `json:"boundingPoly"`
	}{{BoundingPoly: struct {
		Vertices []vertex `json:"vertices"`
	}{Vertices: []vertex{{X: 5, Y: 8}, {X: 40, Y: 8}, {X: 40, Y: 30}, {X: 5, Y: 30}}}}}}
	region, ok := dominantCrop(hints)
	if !ok {
		t.Fatal("expected region")
	}
	if region.x0 != 5 || region.y0 != 8 || region.x1 != 40 || region.y1 != 30 {
		t.Fatalf("unexpected region: %+v", region)
	}
}

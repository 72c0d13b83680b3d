package services

import (
	"context"
	"errors"
	"os"
	"time"

	"warrantly/internal/models"

	"googlemaps.github.io/maps"
)

var (
	mapsClient  *maps.Client
	ErrNoAPIKey = errors.New("GOOGLE_MAPS_API_KEY environment variable not set")
)

// InitMapsClient initializes the Google Maps client
func InitMapsClient() error {
	apiKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	if apiKey == "" {
		return ErrNoAPIKey
	}

	var err error
	mapsClient, err = maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return err
	}

	return nil
}

// ValidateStore validates and standardizes a store location using its Place ID
func ValidateStore(placeID string) (*models.PurchaseLocation, error) {
	if mapsClient == nil {
		if err := InitMapsClient(); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	request := &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields: []maps.PlaceDetailsFieldMask{
			maps.PlaceDetailsFieldMaskGeometry,
			maps.PlaceDetailsFieldMaskFormattedAddress,
			maps.PlaceDetailsFieldMaskName,
			maps.PlaceDetailsFieldMaskPlaceID,
		},
	}

	response, err := mapsClient.PlaceDetails(ctx, request)
	if err != nil {
		return nil, err
	}

	return &models.PurchaseLocation{
		PlaceID:          response.PlaceID,
		Name:             response.Name,
		FormattedAddress: response.FormattedAddress,
		Latitude:         response.Geometry.Location.Lat,
		Longitude:        response.Geometry.Location.Lng,
	}, nil
}

// SearchStores looks up retailer or service-center locations by free text
func SearchStores(query string) ([]models.PurchaseLocation, error) {
	if mapsClient == nil {
		if err := InitMapsClient(); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	request := &maps.TextSearchRequest{
		Query: query,
	}

	response, err := mapsClient.TextSearch(ctx, request)
	if err != nil {
		return nil, err
	}

	locations := make([]models.PurchaseLocation, 0, len(response.Results))
	for _, r := range response.Results {
		locations = append(locations, models.PurchaseLocation{
			PlaceID:          r.PlaceID,
			Name:             r.Name,
			FormattedAddress: r.FormattedAddress,
			Latitude:         r.Geometry.Location.Lat,
			Longitude:        r.Geometry.Location.Lng,
		})
	}

	return locations, nil
}

package storefront

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/roach88/bundlekeys/internal/model"
)

type userData struct {
	OwnedApps     []int `json:"rgOwnedApps"`
	OwnedPackages []int `json:"rgOwnedPackages"`
}

type appList struct {
	AppList struct {
		Apps []struct {
			AppID int    `json:"appid"`
			Name  string `json:"name"`
		} `json:"apps"`
	} `json:"applist"`
}

// Catalog reads the account's ownership snapshot: every owned app and
// package id, plus display names for owned apps taken from the public app
// list. Packages have no public name table, so they only match by id.
func (c *Client) Catalog(ctx context.Context) (model.Catalog, error) {
	var ud userData
	if err := c.getJSON(ctx, c.baseURL+"/dynamicstore/userdata/", &ud); err != nil {
		return model.Catalog{}, err
	}

	owned := make([]string, 0, len(ud.OwnedApps)+len(ud.OwnedPackages))
	ownedApps := make(map[int]bool, len(ud.OwnedApps))
	for _, id := range ud.OwnedPackages {
		owned = append(owned, strconv.Itoa(id))
	}
	for _, id := range ud.OwnedApps {
		owned = append(owned, strconv.Itoa(id))
		ownedApps[id] = true
	}

	var apps appList
	if err := c.getJSON(ctx, c.apiBaseURL+"/ISteamApps/GetAppList/v2/", &apps); err != nil {
		return model.Catalog{}, err
	}

	var named []model.CatalogEntry
	for _, a := range apps.AppList.Apps {
		if ownedApps[a.AppID] && a.Name != "" {
			named = append(named, model.CatalogEntry{ID: strconv.Itoa(a.AppID), DisplayName: a.Name})
		}
	}

	slog.Info("ownership snapshot loaded",
		"apps", len(ud.OwnedApps), "packages", len(ud.OwnedPackages), "named", len(named))
	return model.NewCatalog(owned, named), nil
}

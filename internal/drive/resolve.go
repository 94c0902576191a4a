package drive

import (
	"context"
	"encoding/json"
	"fmt"

	"sekretarz/internal/domain"
)

type folderList struct {
	Status  string          `json:"status"`
	Folders []domain.Folder `json:"folders"`
}

type fileList struct {
	Status string        `json:"status"`
	Files  []domain.File `json:"files"`
}

// FindFolderByName lists all folders and scans for an exact,
// case-sensitive name match. First match wins. A miss or a non-"ok"
// backend reply comes back as *StatusError.
func (c *Client) FindFolderByName(ctx context.Context, name string) (domain.Folder, error) {
	res, err := c.Call(ctx, "list_folders", nil)
	if err != nil {
		return domain.Folder{}, err
	}
	if res.Status != StatusOK {
		return domain.Folder{}, newStatusError(res)
	}

	var list folderList
	if err := json.Unmarshal(res.Raw, &list); err != nil {
		return domain.Folder{}, fmt.Errorf("drive: decode folder list: %w", err)
	}
	for _, folder := range list.Folders {
		if folder.Name == name {
			return folder, nil
		}
	}
	return domain.Folder{}, missError(fmt.Sprintf("Nie znaleziono folderu: %s", name))
}

// FindFileInFolder resolves the folder by name, then scans that
// folder's file list for an exact name match.
func (c *Client) FindFileInFolder(ctx context.Context, folderName, fileName string) (domain.Folder, domain.File, error) {
	folder, err := c.FindFolderByName(ctx, folderName)
	if err != nil {
		return domain.Folder{}, domain.File{}, err
	}

	res, err := c.Call(ctx, "list_in_folder", map[string]interface{}{"folderId": folder.ID})
	if err != nil {
		return domain.Folder{}, domain.File{}, err
	}
	if res.Status != StatusOK {
		return domain.Folder{}, domain.File{}, newStatusError(res)
	}

	var list fileList
	if err := json.Unmarshal(res.Raw, &list); err != nil {
		return domain.Folder{}, domain.File{}, fmt.Errorf("drive: decode file list: %w", err)
	}
	for _, file := range list.Files {
		if file.Name == fileName {
			return folder, file, nil
		}
	}
	return domain.Folder{}, domain.File{}, missError(fmt.Sprintf("Nie znaleziono pliku '%s' w folderze '%s'", fileName, folderName))
}

func missError(message string) *StatusError {
	raw, _ := json.Marshal(domain.ErrorBody{Status: "error", Message: message})
	return &StatusError{Status: "error", Message: message, Raw: raw}
}

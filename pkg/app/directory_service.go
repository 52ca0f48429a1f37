package app

import (
	"context"
	"fmt"

	"github.com/plot451/plot/pkg/domain"
	"github.com/plot451/plot/pkg/domain/column"
	"github.com/plot451/plot/pkg/logger"
)

// ---------------------------------------------------------------------------
// Directory application service
// ---------------------------------------------------------------------------

// DirectoryService orchestrates the directory tree use cases.
type DirectoryService struct {
	repo     column.Repository
	links    *tableLinks
	eventBus domain.EventBus
	factory  column.Factory
}

// NewDirectoryService creates a new directory application service.
func NewDirectoryService(repo column.Repository, links *tableLinks, eventBus domain.EventBus) *DirectoryService {
	return &DirectoryService{
		repo:     repo,
		links:    links,
		eventBus: eventBus,
		factory:  column.NewFactory(),
	}
}

// CreateDirectory creates a directory under parentID, or a root directory
// when parentID is nil. The parent must exist.
func (s *DirectoryService) CreateDirectory(ctx context.Context, rawName string, parentID *column.DirectoryID) (*column.Directory, error) {
	name, err := column.NewDirectoryName(rawName)
	if err != nil {
		return nil, err
	}
	if parentID != nil {
		if _, err := s.repo.FindDirectory(ctx, *parentID); err != nil {
			return nil, fmt.Errorf("parent: %w", err)
		}
	}

	dir, err := s.factory.CreateDirectory(name, parentID)
	if err != nil {
		return nil, err
	}
	id, err := s.repo.SaveDirectory(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("save directory: %w", err)
	}
	if err := dir.SetID(id); err != nil {
		return nil, err
	}

	logger.InfoCF("directory", "Directory created", map[string]interface{}{
		"id":     string(id),
		"name":   name.String(),
		"parent": parentString(parentID),
	})
	publish(s.eventBus, domain.NewEvent(domain.EventDirectoryCreated, id, map[string]interface{}{
		"name":      name.String(),
		"parent_id": parentString(parentID),
	}))
	return dir, nil
}

// ListDirectoryContents returns the directory with its direct columns and
// subdirectories.
func (s *DirectoryService) ListDirectoryContents(ctx context.Context, id column.DirectoryID) (*column.DirectoryContents, error) {
	dir, err := s.repo.FindDirectory(ctx, id)
	if err != nil {
		return nil, err
	}
	columns, err := s.repo.FindByDirectoryID(ctx, id)
	if err != nil {
		return nil, err
	}
	children, err := s.repo.FindChildrenDirectories(ctx, id)
	if err != nil {
		return nil, err
	}
	return column.NewDirectoryContents(dir, columns, children)
}

// ListRootDirectories returns every directory without a parent.
func (s *DirectoryService) ListRootDirectories(ctx context.Context) ([]*column.Directory, error) {
	return s.repo.FindRootDirectories(ctx)
}

// RenameDirectory changes the directory name.
func (s *DirectoryService) RenameDirectory(ctx context.Context, id column.DirectoryID, rawName string) (*column.Directory, error) {
	name, err := column.NewDirectoryName(rawName)
	if err != nil {
		return nil, err
	}
	dir, err := s.repo.FindDirectory(ctx, id)
	if err != nil {
		return nil, err
	}
	dir.ChangeName(name)
	if _, err := s.repo.SaveDirectory(ctx, dir); err != nil {
		return nil, fmt.Errorf("save directory: %w", err)
	}

	publish(s.eventBus, domain.NewEvent(domain.EventDirectoryRenamed, id, map[string]interface{}{
		"name": name.String(),
	}))
	return dir, nil
}

// MoveDirectory re-parents a directory; a nil parent makes it a root.
// Moving a directory into itself or one of its descendants fails with
// ErrDirectoryCycle.
func (s *DirectoryService) MoveDirectory(ctx context.Context, id column.DirectoryID, newParent *column.DirectoryID) (*column.Directory, error) {
	dir, err := s.repo.FindDirectory(ctx, id)
	if err != nil {
		return nil, err
	}
	if newParent != nil {
		if err := s.checkNotDescendant(ctx, id, *newParent); err != nil {
			return nil, err
		}
	}

	dir.MoveTo(newParent)
	if _, err := s.repo.SaveDirectory(ctx, dir); err != nil {
		return nil, fmt.Errorf("save directory: %w", err)
	}

	publish(s.eventBus, domain.NewEvent(domain.EventDirectoryMoved, id, map[string]interface{}{
		"parent_id": parentString(newParent),
	}))
	return dir, nil
}

// checkNotDescendant walks from candidate up to the root and fails if it
// passes through id.
func (s *DirectoryService) checkNotDescendant(ctx context.Context, id, candidate column.DirectoryID) error {
	visited := make(map[column.DirectoryID]bool)
	current := candidate
	for {
		if current == id {
			return fmt.Errorf("%w: %s into %s", column.ErrDirectoryCycle, id, candidate)
		}
		if visited[current] {
			return fmt.Errorf("%w: existing cycle at %s", column.ErrDirectoryCycle, current)
		}
		visited[current] = true

		dir, err := s.repo.FindDirectory(ctx, current)
		if err != nil {
			return err
		}
		parent, ok := dir.ParentID()
		if !ok {
			return nil
		}
		current = parent
	}
}

// DeleteDirectory removes the directory with everything inside it. Columns
// in the subtree are first removed from the tables referencing them.
func (s *DirectoryService) DeleteDirectory(ctx context.Context, id column.DirectoryID) error {
	dir, err := s.repo.FindDirectory(ctx, id)
	if err != nil {
		return err
	}

	columnIDs, err := s.links.subtreeColumns(ctx, id)
	if err != nil {
		return err
	}
	tableEvents, err := s.links.detach(ctx, columnIDs)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteDirectory(ctx, dir); err != nil {
		return fmt.Errorf("delete directory: %w", err)
	}

	logger.InfoCF("directory", "Directory deleted", map[string]interface{}{
		"id":      string(id),
		"columns": len(columnIDs),
	})
	publish(s.eventBus, tableEvents...)
	publish(s.eventBus, domain.NewEvent(domain.EventDirectoryDeleted, id, map[string]interface{}{
		"columns": domain.Strings(columnIDs),
	}))
	return nil
}

func parentString(p *column.DirectoryID) string {
	if p == nil {
		return ""
	}
	return string(*p)
}

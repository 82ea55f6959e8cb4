package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// assignID fills a missing primary key before insert so rows get an id on
// dialects without gen_random_uuid().
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (p *Product) BeforeCreate(*gorm.DB) error { assignID(&p.ID); return nil }

func (c *Cart) BeforeCreate(*gorm.DB) error { assignID(&c.ID); return nil }

func (l *CartLine) BeforeCreate(*gorm.DB) error { assignID(&l.ID); return nil }

func (o *Order) BeforeCreate(*gorm.DB) error { assignID(&o.ID); return nil }

func (i *OrderLineItem) BeforeCreate(*gorm.DB) error { assignID(&i.ID); return nil }

func (n *Notification) BeforeCreate(*gorm.DB) error { assignID(&n.ID); return nil }

func (w *WishlistItem) BeforeCreate(*gorm.DB) error { assignID(&w.ID); return nil }

func (e *OutboxEvent) BeforeCreate(*gorm.DB) error { assignID(&e.ID); return nil }

func (d *OutboxDLQ) BeforeCreate(*gorm.DB) error { assignID(&d.ID); return nil }

func (c *Category) BeforeCreate(*gorm.DB) error { assignID(&c.ID); return nil }

func (r *Review) BeforeCreate(*gorm.DB) error { assignID(&r.ID); return nil }

package api

import "github.com/RoyceAzure/lab/bikemarket/internal/api/handler"

type Server struct {
	ListingHandler *handler.ListingHandler
	CartHandler    *handler.CartHandler
	OrderHandler   *handler.OrderHandler
	SupportHandler *handler.SupportHandler
	AdminHandler   *handler.AdminHandler
	AccountHandler *handler.AccountHandler
}

func NewServer(
	listingHandler *handler.ListingHandler,
	cartHandler *handler.CartHandler,
	orderHandler *handler.OrderHandler,
	supportHandler *handler.SupportHandler,
	adminHandler *handler.AdminHandler,
	accountHandler *handler.AccountHandler,
) *Server {
	return &Server{
		ListingHandler: listingHandler,
		CartHandler:    cartHandler,
		OrderHandler:   orderHandler,
		SupportHandler: supportHandler,
		AdminHandler:   adminHandler,
		AccountHandler: accountHandler,
	}
}

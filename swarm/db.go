package swarm

import (
	"database/sql"
	"fmt"
	"strings"
)

const (
	// TblParticles is the name of the sql database table that contains
	// positions and values for particles for each iteration.
	TblParticles = "swarmparticles"
	// TblParticlesBest is the name of the sql database table that contains
	// each particle's personal best position at each iteration.
	TblParticlesBest = "swarmparticlesbest"
	// TblBest is the name of the sql database table that contains
	// the best position for the entire swarm at each iteration.
	TblBest = "swarmbest"
)

// DB makes the iterator record every particle's position, value and
// personal best into db after each evaluation.
func DB(db *sql.DB) Option {
	return func(it *Iterator) {
		it.Db = &Recorder{db: db}
	}
}

// Recorder writes swarm iterations to a sql database.
type Recorder struct {
	db   *sql.DB
	ndim int
}

func (r *Recorder) init(ndim int) error {
	r.ndim = ndim
	stmts := []string{
		"CREATE TABLE IF NOT EXISTS " + TblParticles + " (tag TEXT, particle INTEGER, iter INTEGER, val REAL" + r.xdbsql("define") + ");",
		"CREATE TABLE IF NOT EXISTS " + TblParticlesBest + " (tag TEXT, particle INTEGER, iter INTEGER, best REAL" + r.xdbsql("define") + ");",
		"CREATE TABLE IF NOT EXISTS " + TblBest + " (tag TEXT, iter INTEGER, val REAL" + r.xdbsql("define") + ");",
	}
	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("swarm: create tables: %w", err)
		}
	}
	return nil
}

func (r *Recorder) xdbsql(op string) string {
	var b strings.Builder
	for i := 0; i < r.ndim; i++ {
		switch op {
		case "?":
			b.WriteString(",?")
		case "define":
			fmt.Fprintf(&b, ",x%v REAL", i)
		case "x":
			fmt.Fprintf(&b, ",x%v", i)
		default:
			panic("invalid db op " + op)
		}
	}
	return b.String()
}

func pos2iface(pos []float64) []any {
	iface := make([]any, 0, len(pos))
	for _, v := range pos {
		iface = append(iface, v)
	}
	return iface
}

func (r *Recorder) record(tag string, iter int, pop Population, best *Particle) (err error) {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("swarm: record iteration %v: %w", iter, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	s0 := "INSERT INTO " + TblParticles + " (tag,particle,iter,val" + r.xdbsql("x") + ") VALUES (?,?,?,?" + r.xdbsql("?") + ");"
	s1 := "INSERT INTO " + TblParticlesBest + " (tag,particle,iter,best" + r.xdbsql("x") + ") VALUES (?,?,?,?" + r.xdbsql("?") + ");"
	for _, p := range pop {
		args := []any{tag, p.Id, iter, p.Val}
		args = append(args, pos2iface(p.Pos())...)
		if _, err := tx.Exec(s0, args...); err != nil {
			return err
		}

		args = []any{tag, p.Id, iter, p.Best.Val}
		args = append(args, pos2iface(p.Best.Pos())...)
		if _, err := tx.Exec(s1, args...); err != nil {
			return err
		}
	}

	s2 := "INSERT INTO " + TblBest + " (tag,iter,val" + r.xdbsql("x") + ") VALUES (?,?,?" + r.xdbsql("?") + ");"
	args := []any{tag, iter, best.Best.Val}
	args = append(args, pos2iface(best.Best.Pos())...)
	_, err = tx.Exec(s2, args...)
	return err
}
